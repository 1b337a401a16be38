package router

import "net/http"

func socialRoutes(d Deps) []Route {
	if d.Social == nil {
		return nil
	}
	var out []Route
	if g := d.Social.Google; g != nil {
		out = append(out,
			Route{Method: http.MethodGet, Pattern: "/auth/google", Handler: g.Redirect, Public: true},
			Route{Method: http.MethodGet, Pattern: "/auth/google/redirect", Handler: g.Callback, Public: true, NoStore: true},
		)
	}
	if gl := d.Social.GoogleLogin; gl != nil {
		out = append(out, Route{Method: http.MethodPost, Pattern: "/auth/google/login", Handler: gl.Login, Public: true, NoStore: true})
	}
	if f := d.Social.Facebook; f != nil {
		out = append(out,
			Route{Method: http.MethodGet, Pattern: "/auth/facebook", Handler: f.Redirect, Public: true},
			Route{Method: http.MethodGet, Pattern: "/auth/facebook/redirect", Handler: f.Callback, Public: true, NoStore: true},
		)
	}
	return out
}
