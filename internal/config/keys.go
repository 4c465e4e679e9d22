package config

import "os"

// CredentialSource represents where a credential comes from.
type CredentialSource string

const (
	SourceEnv     CredentialSource = "env"
	SourceConfig  CredentialSource = "config"
	SourceDefault CredentialSource = "default"
)

// CredentialStatus describes one provider credential for the status command.
type CredentialStatus struct {
	Name   string           `json:"name"`
	Source CredentialSource `json:"source"`
	Masked string           `json:"masked"`
}

// CheckCredentials reports the provider credentials in use.
func CheckCredentials(cfg *Config) []CredentialStatus {
	return []CredentialStatus{
		checkCredential("Baostock User", cfg.Providers.Baostock.User, "anonymous", EnvPrefix+"_BAOSTOCK_USER"),
		checkCredential("Baostock Password", cfg.Providers.Baostock.Password, "123456", EnvPrefix+"_BAOSTOCK_PASSWORD"),
	}
}

func checkCredential(name, value, def, envVar string) CredentialStatus {
	status := CredentialStatus{Name: name, Masked: MaskKey(value)}
	switch {
	case os.Getenv(envVar) != "":
		status.Source = SourceEnv
	case value == def:
		status.Source = SourceDefault
	default:
		status.Source = SourceConfig
	}
	return status
}

// MaskKey masks a secret for display, keeping the first and last two runes.
func MaskKey(key string) string {
	r := []rune(key)
	if len(r) <= 4 {
		return "****"
	}
	return string(r[:2]) + "..." + string(r[len(r)-2:])
}
