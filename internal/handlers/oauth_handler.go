package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"luckabet/internal/config"
	"luckabet/internal/security"
)

// OAuthProvider bundles an oauth2 config with where to fetch the profile.
type OAuthProvider struct {
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// BuildOAuthProviders assembles the providers that have credentials
// configured. An empty map disables social sign-in entirely.
func BuildOAuthProviders(cfg *config.Config) map[string]OAuthProvider {
	providers := make(map[string]OAuthProvider)
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers["google"] = OAuthProvider{
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		}
	}
	if cfg.FacebookClientID != "" && cfg.FacebookClientSecret != "" {
		providers["facebook"] = OAuthProvider{
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		}
	}
	return providers
}

// Providers lists the configured sign-in providers for the login page.
func (h *AuthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	type providerView struct {
		Name  string `json:"name"`
		Label string `json:"label"`
		URL   string `json:"url"`
	}
	views := []providerView{}
	for key, provider := range h.oauthProviders {
		views = append(views, providerView{
			Name:  key,
			Label: provider.Label,
			URL:   fmt.Sprintf("/api/auth/%s/start", key),
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"providers": views})
}

// StartOAuth initiates the OAuth flow for a provider.
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok {
		badRequest(w, "oauth provider not configured")
		return
	}

	state := security.GenerateSessionID()
	h.setTempCookie(w, r, "oauth_state", state, 10*time.Minute)
	h.setTempCookie(w, r, "oauth_provider", providerKey, 10*time.Minute)

	cfg := *provider.Config
	cfg.RedirectURL = h.oauthRedirectURL(r, providerKey)

	http.Redirect(w, r, cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// OAuthCallback completes the flow: verifies state, exchanges the code,
// fetches the profile and signs the user in.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok {
		badRequest(w, "oauth provider not configured")
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		badRequest(w, "missing authorization code")
		return
	}
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		badRequest(w, "invalid oauth state")
		return
	}
	if providerCookie, err := r.Cookie("oauth_provider"); err == nil && providerCookie.Value != providerKey {
		badRequest(w, "oauth provider mismatch")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cfg := *provider.Config
	cfg.RedirectURL = h.oauthRedirectURL(r, providerKey)

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		badRequest(w, "failed to exchange oauth code")
		return
	}

	userInfo, err := fetchOAuthUserInfo(ctx, provider, token)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	h.clearTempCookie(w, r, "oauth_state")
	h.clearTempCookie(w, r, "oauth_provider")

	sessionToken, _, err := h.authService.OAuthLogin(providerKey, userInfo.Subject, userInfo.Email, userInfo.Name)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	claims, err := h.authService.Signer().Parse(sessionToken)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	http.SetCookie(w, security.CreateSessionCookie(r, sessionToken, claims.ExpiresAt.Time))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func fetchOAuthUserInfo(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch user info")
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse user info")
	}
	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.oauthRedirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/api/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}

func (h *AuthHandler) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
	})
}

func (h *AuthHandler) clearTempCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
