package validation

import (
	"errors"
	"testing"

	apperrors "go-fits-inspector/internal/errors"
)

func TestNewURLValidator(t *testing.T) {
	validator := NewURLValidator()
	if validator == nil {
		t.Fatal("Expected non-nil URL validator")
	}

	expectedSchemes := []string{"http", "https"}
	if len(validator.allowedSchemes) != len(expectedSchemes) {
		t.Fatalf("Expected %d schemes, got %d", len(expectedSchemes), len(validator.allowedSchemes))
	}
	for i, scheme := range expectedSchemes {
		if validator.allowedSchemes[i] != scheme {
			t.Errorf("Expected scheme %s, got %s", scheme, validator.allowedSchemes[i])
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		message string
	}{
		{name: "sesame", url: "https://cds.unistra.fr/cgi-bin/nph-sesame/@NSV"},
		{name: "mirror with port", url: "http://vizier.cfa.harvard.edu:8080/viz-bin/nph-sesame/-oI"},
		{name: "uppercase scheme", url: "HTTPS://cds.unistra.fr/cgi-bin/nph-sesame"},
		{name: "empty", url: "   ", message: "URL cannot be empty"},
		{name: "bad escape", url: "http://example.com/%zz", message: "Invalid URL format"},
		{name: "ftp", url: "ftp://example.com/sesame", message: "URL scheme not allowed"},
		{name: "relative", url: "cgi-bin/nph-sesame", message: "URL scheme not allowed"},
		{name: "no host", url: "http:///path", message: "URL must have a valid host"},
		{name: "query", url: "https://cds.unistra.fr/sesame?x=1", message: "URL must not carry a query or fragment"},
		{name: "trailing question mark", url: "https://cds.unistra.fr/sesame?", message: "URL must not carry a query or fragment"},
		{name: "fragment", url: "https://cds.unistra.fr/sesame#top", message: "URL must not carry a query or fragment"},
	}

	validator := NewURLValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateURL(tt.url)
			if tt.message == "" {
				if err != nil {
					t.Fatalf("Expected %q to pass validation, got error: %v", tt.url, err)
				}
				return
			}

			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("Expected AppError, got: %T", err)
			}
			if appErr.Type != apperrors.ErrorTypeValidation {
				t.Errorf("Expected validation error, got %s", appErr.Type)
			}
			if appErr.Message != tt.message {
				t.Errorf("Expected %q error, got: %s", tt.message, appErr.Message)
			}
		})
	}
}

func TestValidateURL_RestrictedHosts(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, []string{"cds.unistra.fr"})

	if err := validator.ValidateURL("https://cds.unistra.fr:443/cgi-bin/nph-sesame"); err != nil {
		t.Errorf("Expected allowed host to pass, got: %v", err)
	}
	if err := validator.ValidateURL("https://evil.example.com/cgi-bin/nph-sesame"); err == nil {
		t.Error("Expected disallowed host to fail validation")
	}
	if err := validator.ValidateURL("http://cds.unistra.fr/cgi-bin/nph-sesame"); err == nil {
		t.Error("Expected http to fail when only https is allowed")
	}
}

func TestIsHostAllowed(t *testing.T) {
	validator := NewURLValidator()
	if !validator.isHostAllowed("example.com") {
		t.Error("Expected any host to be allowed when no restrictions")
	}

	restricted := NewURLValidatorWithOptions([]string{"http", "https"}, []string{"CDS.unistra.fr"})
	if !restricted.isHostAllowed("cds.unistra.fr") {
		t.Error("Expected host match to ignore case")
	}
	if restricted.isHostAllowed("simbad.cds.unistra.fr") {
		t.Error("Expected subdomain to be disallowed")
	}
}
