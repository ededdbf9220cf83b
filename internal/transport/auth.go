package transport

import (
	"context"
	"net/http"
	"sync"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"

	"github.com/google/price-visibility-booster/pkg/errors"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(ctx context.Context, req *http.Request) error
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ context.Context, _ *http.Request) error {
	return nil
}

// StaticToken implements Bearer token authentication with a fixed token,
// typically read from the environment at startup.
type StaticToken struct {
	Token string
}

// Apply implements the Authenticator interface for StaticToken.
func (a *StaticToken) Apply(_ context.Context, req *http.Request) error {
	if a.Token == "" {
		return &errors.AuthenticationError{
			Method:  "token",
			Message: "no access token configured",
		}
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	return nil
}

// MerchantAPIScope is the OAuth scope for the merchant content endpoints.
const MerchantAPIScope = "https://www.googleapis.com/auth/content"

// ADC implements Bearer token authentication backed by Application Default
// Credentials. Credentials are detected once and cached; token refresh is
// handled by the credentials provider.
type ADC struct {
	scopes []string

	mu    sync.Mutex
	creds *auth.Credentials
}

// NewADC creates an ADC authenticator for the given scopes, defaulting to
// the merchant content scope.
func NewADC(scopes ...string) *ADC {
	if len(scopes) == 0 {
		scopes = []string{MerchantAPIScope}
	}
	return &ADC{scopes: scopes}
}

// Apply implements the Authenticator interface for ADC.
func (a *ADC) Apply(ctx context.Context, req *http.Request) error {
	creds, err := a.credentials()
	if err != nil {
		return &errors.AuthenticationError{
			Method:  "adc",
			Message: "failed to detect application default credentials",
			Err:     err,
		}
	}

	token, err := creds.Token(ctx)
	if err != nil {
		return &errors.AuthenticationError{
			Method:  "adc",
			Message: "failed to mint access token",
			Err:     err,
		}
	}

	req.Header.Set("Authorization", "Bearer "+token.Value)
	return nil
}

func (a *ADC) credentials() (*auth.Credentials, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.creds != nil {
		return a.creds, nil
	}

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes: a.scopes,
	})
	if err != nil {
		return nil, err
	}
	a.creds = creds
	return creds, nil
}
