package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Scopes requested by every credential type.
var Scopes = []string{gsheet.SpreadsheetsScope, drive.DriveAppdataScope}

// Credentials holds either a service account key or an OAuth client with a
// previously obtained token. Service accounts win when both are set.
type Credentials struct {
	ServiceAccountJSON []byte
	OAuthClientJSON    []byte
	OAuthTokenJSON     []byte
}

// CredentialSource names inline JSON or files for each credential part.
// Inline JSON wins over a file.
type CredentialSource struct {
	ServiceAccountJSON, ServiceAccountFile string
	OAuthClientJSON, OAuthClientFile       string
	OAuthTokenJSON, OAuthTokenFile         string
}

// LoadCredentials reads the configured credential files.
func LoadCredentials(src CredentialSource) (Credentials, error) {
	var (
		c   Credentials
		err error
	)
	if c.ServiceAccountJSON, err = inlineOrFile(src.ServiceAccountJSON, src.ServiceAccountFile); err != nil {
		return Credentials{}, fmt.Errorf("read service account: %w", err)
	}
	if len(c.ServiceAccountJSON) > 0 {
		return c, nil
	}
	if c.OAuthClientJSON, err = inlineOrFile(src.OAuthClientJSON, src.OAuthClientFile); err != nil {
		return Credentials{}, fmt.Errorf("read oauth client: %w", err)
	}
	if c.OAuthTokenJSON, err = inlineOrFile(src.OAuthTokenJSON, src.OAuthTokenFile); err != nil {
		return Credentials{}, fmt.Errorf("read oauth token: %w", err)
	}
	return c, nil
}

func inlineOrFile(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if path = strings.TrimSpace(path); path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

// ClientOptions turns credentials into API client options.
func (c Credentials) ClientOptions(ctx context.Context) ([]goption.ClientOption, error) {
	if len(c.ServiceAccountJSON) > 0 {
		return []goption.ClientOption{
			goption.WithCredentialsJSON(c.ServiceAccountJSON),
			goption.WithScopes(Scopes...),
		}, nil
	}
	if len(c.OAuthClientJSON) == 0 {
		return nil, errors.New("missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	if len(c.OAuthTokenJSON) == 0 {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}
	cfg, err := goauth.ConfigFromJSON(c.OAuthClientJSON, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(c.OAuthTokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	return []goption.ClientOption{goption.WithTokenSource(cfg.TokenSource(ctx, &tok))}, nil
}

// NewSheetsService creates a Sheets API service.
func NewSheetsService(ctx context.Context, c Credentials) (*gsheet.Service, error) {
	opts, err := c.ClientOptions(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// NewDriveService creates a Drive API service.
func NewDriveService(ctx context.Context, c Credentials) (*drive.Service, error) {
	opts, err := c.ClientOptions(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return svc, nil
}
