package services

import (
	"context"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driving"
	"github.com/custodia-labs/mediatracker/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

var hexColour = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// maxAPIKeyLength bounds the OMDb key; real keys are 8 characters.
const maxAPIKeyLength = 128

// ActiveStorage exposes the currently connected adapter.
type ActiveStorage interface {
	Active() driven.StorageAdapter
}

// SettingsService resolves the effective media settings from three layers:
// built-in defaults, the local settings cache and the config file on the
// connected storage root (highest precedence).
//
// Writes go through to the local cache first so settings survive while no
// backend is connected, then to the config file when one is.
type SettingsService struct {
	cache   driven.ConfigStore
	storage ActiveStorage
	files   *ConfigFileService
	log     logger.Component
}

// NewSettingsService creates a new settings service.
func NewSettingsService(cache driven.ConfigStore, storage ActiveStorage, files *ConfigFileService) *SettingsService {
	if files == nil {
		files = NewConfigFileService()
	}
	return &SettingsService{
		cache:   cache,
		storage: storage,
		files:   files,
		log:     logger.For("settings"),
	}
}

// LoadAllSettings returns defaults ⊕ local cache ⊕ config file.
func (s *SettingsService) LoadAllSettings(ctx context.Context) (domain.ConfigDocument, error) {
	local := domain.ConfigDocument(s.cache.All())
	file := s.files.LoadConfigFromFile(ctx, s.active())
	return MergeConfigs(domain.DefaultConfig(), local, file), nil
}

// SaveAllSettings writes doc to the local cache and, if connected, the config
// file. The boolean reports whether the file was written.
func (s *SettingsService) SaveAllSettings(ctx context.Context, doc domain.ConfigDocument) (bool, error) {
	for key, value := range doc {
		if err := ValidateSetting(key, value); err != nil {
			return false, err
		}
	}

	if err := s.cache.SetAll(doc); err != nil {
		return false, fmt.Errorf("save local settings: %w", err)
	}

	adapter := s.active()
	if adapter == nil {
		s.log.Debug("no storage connected; settings kept locally")
		return false, nil
	}
	return s.files.SaveConfigToFile(ctx, adapter, doc), nil
}

// SetValue validates value and writes it through to the local cache and,
// if connected, the config file.
func (s *SettingsService) SetValue(ctx context.Context, key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", domain.ErrInvalidInput)
	}
	if err := ValidateSetting(key, value); err != nil {
		return err
	}

	if err := s.cache.Set(key, value); err != nil {
		return fmt.Errorf("save local setting %s: %w", key, err)
	}

	if adapter := s.active(); adapter != nil {
		if !s.files.UpdateConfigValue(ctx, adapter, key, value) {
			s.log.Warn("could not write %s to %s; kept locally", key, s.files.Path())
		}
	}
	return nil
}

// UpdateAPIKey stores the OMDb API key.
func (s *SettingsService) UpdateAPIKey(ctx context.Context, key string) error {
	return s.SetValue(ctx, domain.ConfigKeyOMDbAPIKey, key)
}

// GetValue returns the effective value of key, or def if absent.
func (s *SettingsService) GetValue(ctx context.Context, key string, def any) (any, error) {
	doc, err := s.LoadAllSettings(ctx)
	if err != nil {
		return def, err
	}
	if v, ok := doc[key]; ok {
		return v, nil
	}
	return def, nil
}

// ResetToDefaults replaces stored settings with the built-in defaults.
// Unknown keys already stored are left in place.
func (s *SettingsService) ResetToDefaults(ctx context.Context) error {
	adapter := s.active()
	defaults := domain.DefaultConfig()
	if err := s.cache.SetAll(defaults); err != nil {
		return fmt.Errorf("reset local settings: %w", err)
	}
	if adapter == nil {
		return nil
	}
	doc := MergeConfigs(s.files.LoadConfigFromFile(ctx, adapter), defaults)
	if !s.files.SaveConfigToFile(ctx, adapter, doc) {
		s.log.Warn("could not reset %s", s.files.Path())
	}
	return nil
}

// WatchConfig calls fn with freshly resolved settings each time the config
// file changes outside this process. It blocks until ctx is done.
func (s *SettingsService) WatchConfig(ctx context.Context, fn func(domain.ConfigDocument)) error {
	adapter := s.active()
	if adapter == nil {
		return domain.ErrNotConnected
	}
	watchable, ok := adapter.(driven.WatchableAdapter)
	if !ok {
		return fmt.Errorf("%w: %s storage cannot be watched", domain.ErrUnsupportedType, adapter.Kind())
	}

	return watchable.Watch(ctx, s.files.Path(), func() {
		doc, err := s.LoadAllSettings(ctx)
		if err != nil {
			s.log.Warn("reload settings: %v", err)
			return
		}
		fn(doc)
	})
}

// GetDefaults returns the built-in defaults.
func (s *SettingsService) GetDefaults() domain.ConfigDocument {
	return domain.DefaultConfig()
}

func (s *SettingsService) active() driven.StorageAdapter {
	if s.storage == nil {
		return nil
	}
	return s.storage.Active()
}

// ValidateSetting checks the value of a well-known key.
// Unknown keys accept any non-nil scalar.
func ValidateSetting(key string, value any) error {
	if value == nil {
		return fmt.Errorf("%w: %s: value is required", domain.ErrInvalidInput, key)
	}

	var err error
	switch key {
	case domain.ConfigKeyThemePrimary, domain.ConfigKeyThemeHighlight:
		err = validateString(value, validation.Required, validation.Match(hexColour).Error("must be a hex colour"))
	case domain.ConfigKeyCardSize:
		err = validateString(value, validation.Required,
			validation.In(domain.CardSizeSmall, domain.CardSizeMedium, domain.CardSizeLarge))
	case domain.ConfigKeyOMDbAPIKey:
		err = validateString(value, validation.Length(0, maxAPIKeyLength))
	case domain.ConfigKeyHalfStarsEnabled:
		if _, ok := value.(bool); !ok {
			err = validation.NewError("validation_is_bool", "must be true or false")
		}
	default:
		switch value.(type) {
		case string, bool, float64, float32, int, int64:
		default:
			err = validation.NewError("validation_is_scalar", "must be a string, number or boolean")
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	return nil
}

func validateString(value any, rules ...validation.Rule) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_is_string", "must be a string")
	}
	return validation.Validate(s, rules...)
}
