package xled

// This file implements the authenticated HTTP session with a single device.
// Devices hand out a time limited token in exchange for a challenge, the
// token is cached by the session and renewed shortly before it expires.

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/xled/model"
)

var (
	logger = logxi.New("xled")
)

const (
	APIPrefix = "/xled/v1"

	httpTimeout  = 5 * time.Second
	expiryMargin = 5 * time.Second

	authHeader = "X-Auth-Token"
)

// LoginState tracks the progress of the challenge response login
type LoginState int

const (
	LoggedOut LoginState = iota
	LoggingIn
	LoggedIn
	LoginFailed
)

func (state LoginState) String() string {
	switch state {
	case LoggedOut:
		return "logged out"
	case LoggingIn:
		return "logging in"
	case LoggedIn:
		return "logged in"
	case LoginFailed:
		return "login failed"
	}
	return "unknown"
}

// AuthToken is the credential cached for the device
type AuthToken struct {
	Token     string
	ExpiresAt time.Time
	State     LoginState
}

// Session owns the token of one device, the mutex covers the check of the
// token expiry and the login that follows it
type Session struct {
	baseURL string
	client  *http.Client
	token   AuthToken
	logins  int
	now     func() time.Time
	sync.Mutex
}

// NewSession creates a session for the device at the host address
func NewSession(host string) (s *Session) {
	return NewSessionURL("http://" + host + APIPrefix)
}

// NewSessionURL creates a session using a complete base URL, for example
// one pointing at a simulator
func NewSessionURL(baseURL string) (s *Session) {
	return &Session{
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
		now:     time.Now,
	}
}

func (s *Session) BaseURL() string { return s.baseURL }

// Token returns a copy of the cached credential
func (s *Session) Token() AuthToken {
	s.Lock()
	defer s.Unlock()
	return s.token
}

// Logins counts the login attempts made by the session
func (s *Session) Logins() int {
	s.Lock()
	defer s.Unlock()
	return s.logins
}

func (s *Session) IsLoggedIn() bool {
	s.Lock()
	defer s.Unlock()
	return s.token.State == LoggedIn && !s.now().After(s.token.ExpiresAt)
}

// ClearFailure allows logins to be attempted again after the device rejected
// a previous one
func (s *Session) ClearFailure() {
	s.Lock()
	defer s.Unlock()
	if s.token.State == LoginFailed {
		s.token = AuthToken{}
	}
}

// Login performs the challenge response exchange with the device unconditionally
func (s *Session) Login(ctx context.Context) (err errors.Error) {
	s.Lock()
	defer s.Unlock()

	if s.token.State == LoginFailed {
		return errors.Wrap(ErrAuthenticationFailure, "login suppressed after an earlier failure").With("url", s.baseURL).With("stack", stack.Trace().TrimRuntime())
	}
	return s.login(ctx)
}

// RefreshTokenIfNeeded logs in when there is no token or the token has expired,
// the valid token is returned
func (s *Session) RefreshTokenIfNeeded(ctx context.Context) (token string, err errors.Error) {
	s.Lock()
	defer s.Unlock()

	switch s.token.State {
	case LoginFailed:
		return "", errors.Wrap(ErrAuthenticationFailure, "login suppressed after an earlier failure").With("url", s.baseURL).With("stack", stack.Trace().TrimRuntime())
	case LoggedIn:
		if !s.now().After(s.token.ExpiresAt) {
			return s.token.Token, nil
		}
		logger.Debug("refreshing token", "url", s.baseURL)
		s.token = AuthToken{}
	}

	if err = s.login(ctx); err != nil {
		return "", err
	}
	return s.token.Token, nil
}

// login must be called with the lock held
func (s *Session) login(ctx context.Context) (err errors.Error) {
	s.logins++
	s.token = AuthToken{State: LoggingIn}

	challenge := make([]byte, 32)
	if _, errGo := rand.Read(challenge); errGo != nil {
		s.token.State = LoggedOut
		return errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}

	loginResp := &model.LoginResponse{}
	req := &model.LoginRequest{Challenge: base64.StdEncoding.EncodeToString(challenge)}
	if err = s.do(ctx, http.MethodPost, "/login", "", req, loginResp); err != nil {
		if errors.Cause(err) == ErrNetworkUnreachable {
			// The device may return, try again on the next call
			s.token.State = LoggedOut
			return err
		}
		s.token.State = LoginFailed
		return errors.Wrap(ErrAuthenticationFailure, err.Error()).With("url", s.baseURL).With("stack", stack.Trace().TrimRuntime())
	}
	if !loginResp.Code.IsOk() || len(loginResp.AuthenticationToken) == 0 {
		s.token.State = LoginFailed
		return errors.Wrap(ErrAuthenticationFailure, "login rejected").With("code", loginResp.Code.String()).With("url", s.baseURL).With("stack", stack.Trace().TrimRuntime())
	}

	verifyResp := &model.Response{}
	verify := &model.VerifyRequest{ChallengeResponse: loginResp.ChallengeResponse}
	if err = s.do(ctx, http.MethodPost, "/verify", loginResp.AuthenticationToken, verify, verifyResp); err != nil {
		if errors.Cause(err) == ErrNetworkUnreachable {
			s.token.State = LoggedOut
			return err
		}
		s.token.State = LoginFailed
		return errors.Wrap(ErrAuthenticationFailure, err.Error()).With("url", s.baseURL).With("stack", stack.Trace().TrimRuntime())
	}
	if !verifyResp.Code.IsOk() {
		s.token.State = LoginFailed
		return errors.Wrap(ErrAuthenticationFailure, "verify rejected").With("code", verifyResp.Code.String()).With("url", s.baseURL).With("stack", stack.Trace().TrimRuntime())
	}

	s.token = AuthToken{
		Token:     loginResp.AuthenticationToken,
		ExpiresAt: s.now().Add(time.Duration(loginResp.ExpiresIn)*time.Second - expiryMargin),
		State:     LoggedIn,
	}
	logger.Debug("logged in", "url", s.baseURL, "expires", s.token.ExpiresAt)
	return nil
}

// Logout tells the device the token is no longer needed and forgets it
func (s *Session) Logout(ctx context.Context) (err errors.Error) {
	s.Lock()
	token := s.token
	s.token = AuthToken{}
	s.Unlock()

	if token.State != LoggedIn {
		return nil
	}
	return s.do(ctx, http.MethodPost, "/logout", token.Token, struct{}{}, &model.Response{})
}

// dropToken forgets a token the device no longer accepts
func (s *Session) dropToken(token string) {
	s.Lock()
	defer s.Unlock()
	if s.token.Token == token && s.token.State == LoggedIn {
		s.token = AuthToken{}
	}
}

// Get retrieves a JSON document from an authenticated endpoint
func (s *Session) Get(ctx context.Context, path string, out interface{}) (err errors.Error) {
	return s.authenticated(ctx, http.MethodGet, path, nil, out)
}

// GetPublic retrieves a JSON document from an endpoint that does not require a login
func (s *Session) GetPublic(ctx context.Context, path string, out interface{}) (err errors.Error) {
	return s.do(ctx, http.MethodGet, path, "", nil, out)
}

// Post sends a JSON document, or a raw body when in is a byte slice
func (s *Session) Post(ctx context.Context, path string, in interface{}, out interface{}) (err errors.Error) {
	return s.authenticated(ctx, http.MethodPost, path, in, out)
}

func (s *Session) Delete(ctx context.Context, path string, out interface{}) (err errors.Error) {
	return s.authenticated(ctx, http.MethodDelete, path, nil, out)
}

func (s *Session) authenticated(ctx context.Context, method string, path string, in interface{}, out interface{}) (err errors.Error) {
	token, err := s.RefreshTokenIfNeeded(ctx)
	if err != nil {
		return err
	}
	if err = s.do(ctx, method, path, token, in, out); err != nil {
		if errors.Cause(err) == ErrAuthenticationFailure {
			// An expired or revoked token is replaced on the next call
			s.dropToken(token)
		}
		return err
	}
	return nil
}

func (s *Session) do(ctx context.Context, method string, path string, token string, in interface{}, out interface{}) (err errors.Error) {
	url := s.baseURL + path

	var body io.Reader
	contentType := ""
	switch payload := in.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(payload)
		contentType = "application/octet-stream"
	default:
		buf, errGo := json.Marshal(payload)
		if errGo != nil {
			return errors.Wrap(errGo).With("url", url).With("stack", stack.Trace().TrimRuntime())
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, errGo := http.NewRequestWithContext(ctx, method, url, body)
	if errGo != nil {
		return errors.Wrap(errGo).With("url", url).With("stack", stack.Trace().TrimRuntime())
	}
	if len(contentType) != 0 {
		req.Header.Set("Content-Type", contentType)
	}
	if len(token) != 0 {
		req.Header.Set(authHeader, token)
	}

	resp, errGo := s.client.Do(req)
	if errGo != nil {
		err = errors.Wrap(ErrNetworkUnreachable, errGo.Error()).With("url", url).With("method", method).With("stack", stack.Trace().TrimRuntime())
		logger.Warn("device request failed", "error", err.Error())
		return err
	}
	defer resp.Body.Close()

	respBody, errGo := io.ReadAll(resp.Body)
	if errGo != nil {
		err = errors.Wrap(ErrNetworkUnreachable, errGo.Error()).With("url", url).With("method", method).With("stack", stack.Trace().TrimRuntime())
		logger.Warn("device response failed", "error", err.Error())
		return err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.Wrap(ErrAuthenticationFailure, "token rejected").With("url", url).With("status", resp.StatusCode).With("stack", stack.Trace().TrimRuntime())
	case resp.StatusCode >= 300:
		return errors.New("device returned an error status").With("url", url).With("status", resp.StatusCode).With("body", string(respBody)).With("stack", stack.Trace().TrimRuntime())
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if errGo = json.Unmarshal(respBody, out); errGo != nil {
		return errors.Wrap(ErrMalformedInput, errGo.Error()).With("url", url).With("body", string(respBody)).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}
