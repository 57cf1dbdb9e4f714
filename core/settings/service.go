package settings

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/censo/core"
)

var cleanString = core.CleanString

// Service reads and writes the site settings. Missing or malformed settings read as defaults.
type Service struct {
	kv       core.KVStore
	validate *validator.Validate
	logger   core.Logger
}

func NewService(kv core.KVStore, validate *validator.Validate, logger core.Logger) *Service {
	return &Service{kv: kv, validate: validate, logger: logger}
}

func (svc *Service) GetHome(ctx context.Context) HomeCustomization {
	home := DefaultHome()
	if !svc.load(ctx, core.KeyHomeCustomization, &home) {
		return DefaultHome()
	}
	return home
}

func (svc *Service) SaveHome(ctx context.Context, home HomeCustomization) (HomeCustomization, error) {
	home.Clean()
	if err := svc.validate.Struct(home); err != nil {
		return HomeCustomization{}, err
	}
	return home, svc.save(ctx, core.KeyHomeCustomization, home)
}

func (svc *Service) GetFormFields(ctx context.Context) []FormField {
	var fields []FormField
	if !svc.load(ctx, core.KeyFormFields, &fields) || fields == nil {
		return DefaultFormFields()
	}
	return fields
}

// SaveFormFields replaces the form definition. Blank ids are generated.
func (svc *Service) SaveFormFields(ctx context.Context, fields []FormField) ([]FormField, error) {
	if fields == nil {
		fields = []FormField{}
	}
	for i := range fields {
		fields[i].Clean()
		if err := svc.validate.Struct(fields[i]); err != nil {
			return nil, err
		}
		if fields[i].ID == "" {
			fields[i].ID = uuid.NewString()
		}
	}
	return fields, svc.save(ctx, core.KeyFormFields, fields)
}

// load decodes the value stored under key into dst. It reports false when nothing usable is stored.
func (svc *Service) load(ctx context.Context, key string, dst interface{}) bool {
	raw, err := svc.kv.Get(ctx, key)
	if err != nil {
		if errors.Cause(err) != core.ErrKeyNotFound {
			svc.logger.Error("loading "+key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		svc.logger.Warn(key+" is malformed, using defaults", err)
		return false
	}
	return true
}

func (svc *Service) save(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding "+key)
	}
	return errors.Wrap(svc.kv.Set(ctx, key, raw), "saving "+key)
}
