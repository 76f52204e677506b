package backend

import (
	"errors"
	"fmt"

	"budgethub/internal/config"
	"budgethub/internal/sheets/google"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	c := Config{
		Sheets:       SheetsType(appConfig.SheetsBackend),
		Documents:    DocumentType(appConfig.DocumentBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		Credentials: google.CredentialSource{
			ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
			ServiceAccountFile: appConfig.GoogleServiceAccountFile,
			OAuthClientJSON:    appConfig.GoogleOAuthClientJSON,
			OAuthClientFile:    appConfig.GoogleOAuthClientFile,
			OAuthTokenJSON:     appConfig.GoogleOAuthTokenJSON,
			OAuthTokenFile:     appConfig.GoogleOAuthTokenFile,
		},
		DataDirectory: "data",
	}
	return c, c.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Sheets.IsValid() {
		return fmt.Errorf("invalid sheets backend: %s", c.Sheets)
	}
	if !c.Documents.IsValid() {
		return fmt.Errorf("invalid document backend: %s", c.Documents)
	}
	if c.Documents == SQLiteDocuments && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	return nil
}

// UsesGoogle reports whether credentials must be loaded.
func (c Config) UsesGoogle() bool {
	return c.Sheets.usesGoogle() || c.Documents.usesGoogle()
}
