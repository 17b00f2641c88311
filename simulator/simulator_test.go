package simulator

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/TeamNorCal/xled/model"
)

func request(t *testing.T, router http.Handler, method string, path string, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf := &bytes.Buffer{}
	if body != nil {
		if errGo := json.NewEncoder(buf).Encode(body); errGo != nil {
			t.Fatal(errGo)
		}
	}
	req := httptest.NewRequest(method, "/xled/v1"+path, buf)
	req.Header.Set("Content-Type", "application/json")
	if len(token) != 0 {
		req.Header.Set("X-Auth-Token", token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// login runs the challenge exchange and returns the token
func login(t *testing.T, dev *Device, router http.Handler) string {
	t.Helper()
	w := request(t, router, http.MethodPost, "/login", "", &model.LoginRequest{Challenge: "AAAA"})
	resp := &model.LoginResponse{}
	if errGo := json.Unmarshal(w.Body.Bytes(), resp); errGo != nil {
		t.Fatal(errGo)
	}
	if !resp.Code.IsOk() || len(resp.AuthenticationToken) == 0 {
		t.Fatalf("login refused %s", w.Body.String())
	}
	if w = request(t, router, http.MethodPost, "/verify", resp.AuthenticationToken, &model.VerifyRequest{}); w.Code != http.StatusOK {
		t.Fatalf("verify refused %d", w.Code)
	}
	return resp.AuthenticationToken
}

func TestAuthentication(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dev := New(Config{Width: 2, Height: 2}, nil)
	router := dev.Router()

	if w := request(t, router, http.MethodGet, "/led/mode", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated request answered with %d", w.Code)
	}
	if w := request(t, router, http.MethodGet, "/gestalt", "", nil); w.Code != http.StatusOK {
		t.Errorf("gestalt needs no login, got %d", w.Code)
	}

	token := login(t, dev, router)
	if dev.Logins() != 1 {
		t.Errorf("expected one login, got %d", dev.Logins())
	}
	if w := request(t, router, http.MethodGet, "/led/mode", token, nil); w.Code != http.StatusOK {
		t.Errorf("authenticated request answered with %d", w.Code)
	}

	dev.ExpireToken()
	if w := request(t, router, http.MethodGet, "/led/mode", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expired token accepted, %d", w.Code)
	}
}

func TestModes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dev := New(Config{Width: 2, Height: 2}, nil)
	router := dev.Router()
	token := login(t, dev, router)

	for _, tt := range []struct {
		mode model.LedMode
		code model.ResponseCode
	}{
		{model.ModeRealTime, model.CodeOk},
		{model.ModePlaylist, model.CodeInvalidArgument},
		{model.LedMode("disco"), model.CodeInvalidArgument},
		{model.ModeOff, model.CodeOk},
	} {
		w := request(t, router, http.MethodPost, "/led/mode", token, &model.ModeRequest{Mode: tt.mode})
		resp := &model.Response{}
		json.Unmarshal(w.Body.Bytes(), resp)
		if resp.Code != tt.code {
			t.Errorf("%s: expected %s, got %s", tt.mode, tt.code, resp.Code)
		}
	}
	if dev.Mode() != model.ModeOff {
		t.Errorf("unexpected mode %s", dev.Mode())
	}
}

func TestReceiveFrame(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dev := New(Config{Width: 20, Height: 21}, nil)
	router := dev.Router()
	token := login(t, dev, router)
	request(t, router, http.MethodPost, "/led/mode", token, &model.ModeRequest{Mode: model.ModeRealTime})

	raw, _ := base64.StdEncoding.DecodeString(token)
	payload := make([]byte, 20*21*3)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	datagram := func(index int, chunk []byte) []byte {
		out := append([]byte{3}, raw...)
		out = append(out, 0, 0, byte(index))
		return append(out, chunk...)
	}

	// A chunk ahead of chunk 0 is discarded when chunk 0 restarts the frame
	if err := dev.receive(datagram(1, payload[chunkSize:])); err != nil {
		t.Fatal(err.Error())
	}
	if err := dev.receive(datagram(0, payload[:chunkSize])); err != nil {
		t.Fatal(err.Error())
	}
	select {
	case <-dev.Frames():
		t.Fatal("frame completed from a restarted assembly")
	default:
	}
	if err := dev.receive(datagram(1, payload[chunkSize:])); err != nil {
		t.Fatal(err.Error())
	}

	select {
	case data := <-dev.Frames():
		if !bytes.Equal(data, payload) {
			t.Error("frame not reassembled")
		}
	default:
		t.Fatal("frame not completed")
	}

	// Datagrams with a foreign token are dropped
	bad := append([]byte{3}, bytes.Repeat([]byte{0xee}, len(raw))...)
	bad = append(bad, 0, 0, 0, 1, 2, 3)
	if err := dev.receive(bad); err == nil {
		t.Error("foreign token accepted")
	}
}
