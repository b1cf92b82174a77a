package utils

import (
	"reflect"
	"strconv"
	"strings"

	"locsync/internal/models"
	"locsync/internal/types"
)

// GenerateSettingsMetadata walks the SystemSettings struct tags and produces
// the metadata list served by the settings API.
func GenerateSettingsMetadata(settings *types.SystemSettings) []models.SystemSettingInfo {
	v := reflect.ValueOf(settings).Elem()
	t := v.Type()

	infos := make([]models.SystemSettingInfo, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		jsonTag := strings.Split(field.Tag.Get("json"), ",")[0]
		if jsonTag == "" || jsonTag == "-" {
			continue
		}

		info := models.SystemSettingInfo{
			Key:         jsonTag,
			Name:        field.Tag.Get("name"),
			Description: field.Tag.Get("desc"),
			Category:    field.Tag.Get("category"),
			Value:       v.Field(i).Interface(),
		}

		switch field.Type.Kind() {
		case reflect.Int:
			info.Type = "int"
			if def, err := strconv.Atoi(field.Tag.Get("default")); err == nil {
				info.DefaultValue = def
			}
		case reflect.Bool:
			info.Type = "bool"
			info.DefaultValue = field.Tag.Get("default") == "true"
		default:
			info.Type = "string"
			info.DefaultValue = field.Tag.Get("default")
		}

		validate := field.Tag.Get("validate")
		info.Required = strings.Contains(validate, "required")
		for _, rule := range strings.Split(validate, ",") {
			if after, found := strings.CutPrefix(rule, "min="); found {
				if min, err := strconv.Atoi(after); err == nil {
					info.MinValue = &min
				}
			}
		}

		infos = append(infos, info)
	}
	return infos
}
