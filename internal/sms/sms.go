// Package sms envía mensajes de texto a través de un gateway HTTP (BulkSMS o compatible).
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

// Config del gateway.
type Config struct {
	Enabled    bool
	APIURL     string
	AuthHeader string // valor literal del header Authorization
	Timeout    time.Duration
}

// Gateway es best-effort: Send reporta éxito y nunca propaga errores.
type Gateway struct {
	cfg    Config
	client *http.Client
}

// New crea un Gateway. Si client es nil se usa uno con cfg.Timeout (10s por defecto).
func New(cfg Config, client *http.Client) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Gateway{cfg: cfg, client: client}
}

type message struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Enabled indica si el envío real está activo.
func (g *Gateway) Enabled() bool { return g != nil && g.cfg.Enabled }

// Send envía body a phone.
func (g *Gateway) Send(ctx context.Context, phone, body string) bool {
	log := logger.From(ctx).With(logger.Component("sms.gateway"))
	if !g.Enabled() {
		log.Warn("sms sending is disabled, skipping")
		return true
	}
	if err := g.post(ctx, message{To: phone, Body: body}); err != nil {
		log.Error("failed to send sms", logger.Err(err))
		return false
	}
	log.Info("sms sent")
	return true
}

func (g *Gateway) post(ctx context.Context, m message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.AuthHeader != "" {
		req.Header.Set("Authorization", g.cfg.AuthHeader)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
