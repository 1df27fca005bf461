package step

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/cuinixam/pypeline/internal/errors"
)

// DecodeConfig decodes free-form step configuration into target, a pointer
// to a struct with mapstructure tags. Scalars are converted weakly ("3" to
// 3, "true" to true); keys that match no field are an error unless the
// struct has a ",remain" field.
func DecodeConfig(raw map[string]any, target any) error {
	if len(raw) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return errors.Wrap(err, "invalid config target")
	}
	if err := dec.Decode(raw); err != nil {
		return errors.NewConfigError("invalid step config", err)
	}
	return nil
}
