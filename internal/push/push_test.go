package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/cuidamed/internal/model"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	// Public key should be base64url-encoded, 65 bytes uncompressed P-256 point
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	// Private key should be base64url-encoded, 32 bytes P-256 scalar
	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}

func TestNewRejectsHalfVAPIDPair(t *testing.T) {
	if _, err := New(Config{VAPIDPublicKey: "pub"}); err == nil {
		t.Fatal("expected error with only a public key")
	}
}

func TestNewRejectsBadExpoURL(t *testing.T) {
	if _, err := New(Config{ExpoURL: "not a url"}); err == nil {
		t.Fatal("expected error for invalid expo url")
	}
}

func TestNilClientNotInitialized(t *testing.T) {
	var c *Client

	err := c.Send(context.Background(), model.UserDevice{Platform: model.PlatformIOS, EndpointToken: "t"}, Message{})
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
	if c.VAPIDPublicKey() != "" {
		t.Error("expected empty VAPID key on nil client")
	}
}

func TestSendUnsupportedPlatform(t *testing.T) {
	c, err := New(Config{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = c.Send(context.Background(), model.UserDevice{Platform: "blackberry", EndpointToken: "t"}, Message{})
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("err = %v, want ErrUnsupportedPlatform", err)
	}

	// Web push disabled without VAPID keys
	err = c.Send(context.Background(), model.UserDevice{Platform: model.PlatformWeb, EndpointToken: "{}"}, Message{})
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("err = %v, want ErrUnsupportedPlatform", err)
	}
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		token    string
		wantErr  error
	}{
		{"expo token", model.PlatformIOS, "ExponentPushToken[abc]", nil},
		{"android token", model.PlatformAndroid, "ExponentPushToken[def]", nil},
		{"empty", model.PlatformIOS, "", ErrInvalidToken},
		{"web subscription", model.PlatformWeb, `{"endpoint":"https://push.example.com/1","keys":{"p256dh":"k","auth":"a"}}`, nil},
		{"web missing keys", model.PlatformWeb, `{"endpoint":"https://push.example.com/1"}`, ErrInvalidToken},
		{"web not json", model.PlatformWeb, "ExponentPushToken[abc]", ErrInvalidToken},
		{"unknown platform", "symbian", "tok", ErrUnsupportedPlatform},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateToken(tt.platform, tt.token)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageJSON(t *testing.T) {
	data, err := json.Marshal(Message{Title: "T", Body: "B"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"title":"T","body":"B"}` {
		t.Errorf("json = %s, want data omitted when empty", data)
	}
}

// newSubscription returns a browser-style subscription JSON pointing at endpoint.
func newSubscription(t *testing.T, endpoint string) string {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate subscriber key: %v", err)
	}
	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		t.Fatalf("generate auth secret: %v", err)
	}

	sub := map[string]any{
		"endpoint": endpoint,
		"keys": map[string]string{
			"p256dh": base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
			"auth":   base64.RawURLEncoding.EncodeToString(auth),
		},
	}
	data, err := json.Marshal(sub)
	if err != nil {
		t.Fatalf("marshal subscription: %v", err)
	}
	return string(data)
}

func newWebClient(t *testing.T) *Client {
	t.Helper()
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}
	c, err := New(Config{VAPIDPublicKey: pub, VAPIDPrivateKey: priv, Subscriber: "mailto:test@example.com"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestWebPushSend(t *testing.T) {
	var gotAuth, gotEncoding string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotEncoding = r.Header.Get("Content-Encoding")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := newWebClient(t)
	if c.VAPIDPublicKey() == "" {
		t.Fatal("expected VAPID public key")
	}

	device := model.UserDevice{Platform: model.PlatformWeb, EndpointToken: newSubscription(t, server.URL+"/sub/1")}
	if err := c.Send(context.Background(), device, Message{Title: "T", Body: "B"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAuth == "" {
		t.Error("expected VAPID Authorization header")
	}
	if gotEncoding != "aes128gcm" {
		t.Errorf("Content-Encoding = %q, want aes128gcm", gotEncoding)
	}
}

func TestWebPushGone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	c := newWebClient(t)
	device := model.UserDevice{Platform: model.PlatformWeb, EndpointToken: newSubscription(t, server.URL)}
	if err := c.Send(context.Background(), device, Message{Title: "T"}); !errors.Is(err, ErrExpired) {
		t.Errorf("err = %v, want ErrExpired", err)
	}
}
