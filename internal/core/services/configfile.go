package services

import (
	"context"
	"encoding/json"

	"github.com/custodia-labs/mediatracker/internal/core/domain"
	"github.com/custodia-labs/mediatracker/internal/core/ports/driven"
	"github.com/custodia-labs/mediatracker/internal/logger"
)

// configIndent keeps the settings document readable and diff-friendly.
const configIndent = "  "

// ConfigFileService treats .mmt.config at the storage root as the
// authoritative, portable settings document.
//
// None of its methods return errors. A missing adapter, a missing file and a
// malformed file all read as an empty document, and failed writes report
// false, because "not connected yet" is an ordinary state for callers.
type ConfigFileService struct {
	path string
	log  logger.Component
}

// NewConfigFileService creates a service for the default config path.
func NewConfigFileService() *ConfigFileService {
	return &ConfigFileService{
		path: domain.ConfigFileName,
		log:  logger.For("config"),
	}
}

// Path returns the config document path relative to the storage root.
func (s *ConfigFileService) Path() string {
	return s.path
}

// LoadConfigFromFile returns the stored document, or an empty one if the
// adapter is nil or disconnected, the file is absent, or its content is not
// a JSON object.
func (s *ConfigFileService) LoadConfigFromFile(ctx context.Context, adapter driven.StorageAdapter) domain.ConfigDocument {
	if !connected(adapter) {
		return domain.ConfigDocument{}
	}

	data, err := adapter.ReadFile(ctx, s.path)
	if err != nil {
		s.log.Warn("read %s: %v", s.path, err)
		return domain.ConfigDocument{}
	}
	if data == nil {
		return domain.ConfigDocument{}
	}

	var doc domain.ConfigDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("parse %s, ignoring file: %v", s.path, err)
		return domain.ConfigDocument{}
	}
	if doc == nil {
		return domain.ConfigDocument{}
	}
	return doc
}

// SaveConfigToFile writes doc as 2-space indented JSON.
// Returns false if the adapter is nil or disconnected, or the write fails.
func (s *ConfigFileService) SaveConfigToFile(
	ctx context.Context, adapter driven.StorageAdapter, doc domain.ConfigDocument,
) bool {
	if !connected(adapter) {
		return false
	}
	if doc == nil {
		doc = domain.ConfigDocument{}
	}

	data, err := json.MarshalIndent(doc, "", configIndent)
	if err != nil {
		s.log.Warn("encode %s: %v", s.path, err)
		return false
	}

	if err := adapter.WriteFile(ctx, s.path, data); err != nil {
		s.log.Warn("write %s: %v", s.path, err)
		return false
	}
	s.log.Debug("wrote %s (%d keys)", s.path, len(doc))
	return true
}

// UpdateConfigValue loads the document, sets key and writes it back.
//
// This is a read-modify-write with no lock: two processes updating the same
// root concurrently can lose an update. The last writer wins.
func (s *ConfigFileService) UpdateConfigValue(
	ctx context.Context, adapter driven.StorageAdapter, key string, value any,
) bool {
	if !connected(adapter) {
		return false
	}
	doc := s.LoadConfigFromFile(ctx, adapter)
	doc[key] = value
	return s.SaveConfigToFile(ctx, adapter, doc)
}

// GetConfigValue returns the stored value of key, or def if the key is absent.
// Present keys are returned even when their value is false, "" or null.
func (s *ConfigFileService) GetConfigValue(
	ctx context.Context, adapter driven.StorageAdapter, key string, def any,
) any {
	doc := s.LoadConfigFromFile(ctx, adapter)
	if v, ok := doc[key]; ok {
		return v
	}
	return def
}

// MergeConfigs returns local overlaid with file. Keys in file win; keys only
// in local pass through. Neither input is modified.
func (s *ConfigFileService) MergeConfigs(local, file domain.ConfigDocument) domain.ConfigDocument {
	return MergeConfigs(local, file)
}

// GetDefaultConfig returns the built-in baseline document.
func (s *ConfigFileService) GetDefaultConfig() domain.ConfigDocument {
	return domain.DefaultConfig()
}

// MergeConfigs shallow-merges layers left to right; later layers win per key.
func MergeConfigs(layers ...domain.ConfigDocument) domain.ConfigDocument {
	out := domain.ConfigDocument{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

func connected(adapter driven.StorageAdapter) bool {
	return adapter != nil && adapter.IsConnected()
}
