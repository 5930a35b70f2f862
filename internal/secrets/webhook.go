package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// "Service" groups the app's secrets in the OS keychain.
	KeyringService = "sponsorscout"

	webhookAccount = "notify:webhook"

	// Env override for headless machines without a keychain.
	webhookEnv = "SPONSORSCOUT_WEBHOOK_URL"
)

// GetWebhookURL looks in the keychain first, then the environment. The
// webhook URL embeds its own token, which is why it lives in the keychain
// and never in config.yml.
func GetWebhookURL() (string, error) {
	url, err := keyring.Get(KeyringService, webhookAccount)
	if err == nil && strings.TrimSpace(url) != "" {
		return url, nil
	}

	if url := strings.TrimSpace(os.Getenv(webhookEnv)); url != "" {
		return url, nil
	}

	return "", errors.New("webhook URL not found (set it via the API or " + webhookEnv + ")")
}

func SetWebhookURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("webhook URL is empty")
	}
	return keyring.Set(KeyringService, webhookAccount, url)
}

func DeleteWebhookURL() error {
	return keyring.Delete(KeyringService, webhookAccount)
}
