package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/dukerupert/cuidamed/internal/model"
)

var (
	// ErrNotInitialized is returned by Send on a nil *Client, i.e. when the
	// transport failed to initialize at startup.
	ErrNotInitialized = errors.New("push client not initialized")

	// ErrExpired is returned when the push service reports the token as no
	// longer valid (410 Gone, DeviceNotRegistered).
	ErrExpired = errors.New("push token expired")

	ErrUnsupportedPlatform = errors.New("unsupported device platform")
	ErrInvalidToken        = errors.New("invalid endpoint token")
)

const maxTokenLength = 4096

// Message is the notification sent to a device. Data is passed through to the
// app untouched.
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Config holds transport configuration. Web push is enabled only when both
// VAPID keys are set.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string

	ExpoURL         string
	ExpoAccessToken string

	HTTPClient *http.Client
}

// Client sends notifications to registered devices, picking the transport by
// device platform.
type Client struct {
	expo *expoSender
	web  *webSender
}

// New validates cfg and returns an initialized client.
func New(cfg Config) (*Client, error) {
	if (cfg.VAPIDPublicKey == "") != (cfg.VAPIDPrivateKey == "") {
		return nil, errors.New("init push: VAPID public and private keys must be set together")
	}

	expoURL := cfg.ExpoURL
	if expoURL == "" {
		expoURL = DefaultExpoURL
	}
	u, err := url.Parse(expoURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("init push: invalid expo url %q", expoURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	c := &Client{
		expo: &expoSender{
			url:         expoURL,
			accessToken: cfg.ExpoAccessToken,
			httpClient:  httpClient,
		},
	}
	if cfg.VAPIDPublicKey != "" {
		c.web = &webSender{
			publicKey:  cfg.VAPIDPublicKey,
			privateKey: cfg.VAPIDPrivateKey,
			subscriber: cfg.Subscriber,
			httpClient: httpClient,
		}
	}
	return c, nil
}

// VAPIDPublicKey returns the key browsers need to subscribe, or "" when web
// push is disabled.
func (c *Client) VAPIDPublicKey() string {
	if c == nil || c.web == nil {
		return ""
	}
	return c.web.publicKey
}

// Send delivers msg to a single device.
func (c *Client) Send(ctx context.Context, device model.UserDevice, msg Message) error {
	if c == nil {
		return ErrNotInitialized
	}

	switch device.Platform {
	case model.PlatformIOS, model.PlatformAndroid:
		return c.expo.send(ctx, device.EndpointToken, msg)
	case model.PlatformWeb:
		if c.web == nil {
			return fmt.Errorf("%w: web push is not configured", ErrUnsupportedPlatform)
		}
		return c.web.send(ctx, device.EndpointToken, msg)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedPlatform, device.Platform)
	}
}

// ValidateToken checks that an endpoint token is plausible for its platform
// before a device is registered.
func ValidateToken(platform, token string) error {
	if token == "" || len(token) > maxTokenLength {
		return ErrInvalidToken
	}
	switch platform {
	case model.PlatformIOS, model.PlatformAndroid:
		return nil
	case model.PlatformWeb:
		_, err := parseSubscription(token)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedPlatform, platform)
	}
}

// GenerateVAPIDKeys generates a new P-256 key pair for VAPID, base64url
// encoded as browsers and push services expect.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generate VAPID keys: %w", err)
	}
	return publicKey, privateKey, nil
}
