package auth

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/userauth/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/userauth/internal/http/errors"
	"github.com/dropDatabas3/userauth/internal/http/helpers"
	"github.com/dropDatabas3/userauth/internal/http/middlewares"
	svc "github.com/dropDatabas3/userauth/internal/http/services/auth"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
)

const profilePicsDir = "profilePics"

// ProfileController maneja GET/PATCH /auth/profile.
type ProfileController struct {
	service   svc.Service
	uploadDir string
}

// NewProfileController crea el controller.
func NewProfileController(service svc.Service, uploadDir string) *ProfileController {
	return &ProfileController{service: service, uploadDir: uploadDir}
}

// Get maneja GET /auth/profile
func (c *ProfileController) Get(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrNotFound.WithMessage("User ID not Found"))
		return
	}
	v, err := c.service.Profile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "", v)
}

// Update maneja PATCH /auth/profile. Acepta multipart (fullName + profilePic)
// o JSON (solo fullName). Si el service falla, el archivo subido se borra.
func (c *ProfileController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProfileController.Update"))

	userID := middlewares.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrNotFound.WithMessage("User ID not Found"))
		return
	}

	var in dto.ProfileUpdate
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.HasPrefix(ct, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, helpers.MaxProfilePicBytes+(1<<20))
		if err := r.ParseMultipartForm(helpers.MaxProfilePicBytes); err != nil {
			httperrors.WriteError(w, httperrors.ErrBodyTooLarge.WithCause(err))
			return
		}
		if vals, ok := r.MultipartForm.Value["fullName"]; ok && len(vals) > 0 {
			name := strings.TrimSpace(vals[0])
			in.FullName = &name
		}
		pic, err := helpers.SaveImage(r, "profilePic", c.uploadDir, profilePicsDir, helpers.MaxProfilePicBytes)
		if err != nil {
			httperrors.WriteError(w, err)
			return
		}
		if pic != "" {
			in.ProfilePic = &pic
		}
	} else {
		if !helpers.ReadJSON(w, r, &in) {
			return
		}
		if in.FullName != nil {
			name := strings.TrimSpace(*in.FullName)
			in.FullName = &name
		}
	}

	if in.FullName != nil && *in.FullName == "" {
		c.discard(in.ProfilePic)
		httperrors.WriteError(w, httperrors.ErrValidation.WithMessage("fullName should not be empty"))
		return
	}

	v, err := c.service.UpdateProfile(ctx, userID, in)
	if err != nil {
		log.Debug("profile update failed", logger.Err(err))
		c.discard(in.ProfilePic)
		handleServiceError(w, err)
		return
	}
	helpers.WriteSuccess(w, http.StatusOK, "", v)
}

func (c *ProfileController) discard(pic *string) {
	if pic == nil {
		return
	}
	_ = helpers.RemoveUpload(c.uploadDir, *pic)
}
