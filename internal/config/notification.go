package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// NotificationConfig holds the email subject lines per notification type.
// Operators tune the wording without a redeploy; the file is hot reloaded.
type NotificationConfig struct {
	Subjects map[string]string `mapstructure:"subjects"`
}

func DefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		Subjects: map[string]string{
			"prod_package_approved_notification": "Your product subscription has been approved",
			"prod_package_rejected_notification": "Your product subscription has been rejected",
			"product_confirmation_notification":  "Your product subscription request was received",
			"reapproved_product_subscription":    "Your product subscription has been re-approved",
		},
	}
}

type NotificationConfigHolder struct {
	current atomic.Value // holds NotificationConfig
}

func NewNotificationConfigHolder() (*NotificationConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("notification")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/authhub")
	v.AddConfigPath(".")

	v.SetEnvPrefix("AUTHHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultNotificationConfig()
		v.SetDefault("notification.subjects", defaults.Subjects)
	}

	var cfg NotificationConfig
	if err := v.UnmarshalKey("notification", &cfg); err != nil {
		return nil, err
	}
	if err := validateNotificationConfig(cfg); err != nil {
		return nil, err
	}

	holder := &NotificationConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated NotificationConfig
		if err := v.UnmarshalKey("notification", &updated); err != nil {
			log.Printf("[notification-config] reload failed: %v", err)
			return
		}
		if err := validateNotificationConfig(updated); err != nil {
			log.Printf("[notification-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[notification-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *NotificationConfigHolder) Get() NotificationConfig {
	return h.current.Load().(NotificationConfig)
}

// Subject returns the configured subject for a notification type, falling
// back to the built-in default when the type is not configured.
func (h *NotificationConfigHolder) Subject(notificationType string) string {
	if subject, ok := h.Get().Subjects[notificationType]; ok && subject != "" {
		return subject
	}
	return DefaultNotificationConfig().Subjects[notificationType]
}

func validateNotificationConfig(cfg NotificationConfig) error {
	if len(cfg.Subjects) == 0 {
		return errors.New("notification.subjects cannot be empty")
	}
	return nil
}
