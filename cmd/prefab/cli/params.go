// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// FlagBinder is implemented by types that bind their own flags. When a
// struct field's type implements FlagBinder, [BindFlags] calls AddFlags
// instead of reflecting struct tags.
type FlagBinder interface {
	AddFlags(flagSet *pflag.FlagSet)
}

// FlagsFromParams creates a [pflag.FlagSet] with flags bound to the tagged
// fields of params, which must be a pointer to a struct. Panics on
// invalid input.
//
//	var params pushParams
//	command := &cli.Command{
//	    Flags: func() *pflag.FlagSet {
//	        return cli.FlagsFromParams("push", &params)
//	    },
//	    Run: func(args []string) error {
//	        // params fields are populated after flag parsing
//	    },
//	}
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// BindFlags registers pflag entries for each tagged field in params.
//
// Tags: flag:"name" or flag:"name,n" gives the long name and optional
// shorthand; desc:"..." the help text; default:"..." the default,
// parsed for the field's type. Supported types are string, bool, int,
// float64 and []string. Embedded structs are bound recursively unless
// they implement [FlagBinder].
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStructFields(value.Elem(), flagSet)
}

func bindStructFields(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	structType := structValue.Type()

	for i := range structType.NumField() {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)

		if field.Type.Kind() == reflect.Struct && field.IsExported() && fieldValue.CanAddr() {
			if binder, ok := fieldValue.Addr().Interface().(FlagBinder); ok {
				binder.AddFlags(flagSet)
				continue
			}
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStructFields(fieldValue, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		flagTag := field.Tag.Get("flag")
		if flagTag == "" {
			continue
		}
		spec := flagSpec{description: field.Tag.Get("desc"), defaultValue: field.Tag.Get("default")}
		spec.name, spec.shorthand, _ = strings.Cut(flagTag, ",")

		if !fieldValue.CanAddr() {
			return fmt.Errorf("field %s: not addressable", field.Name)
		}
		if err := bindField(fieldValue, flagSet, spec); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return nil
}

// flagSpec is the parsed tag set of one field.
type flagSpec struct {
	name, shorthand, description, defaultValue string
}

func bindField(fieldValue reflect.Value, flagSet *pflag.FlagSet, spec flagSpec) error {
	var err error
	switch target := fieldValue.Addr().Interface().(type) {
	case *string:
		flagSet.StringVarP(target, spec.name, spec.shorthand, spec.defaultValue, spec.description)
	case *bool:
		var value bool
		if value, err = parseDefault(spec, strconv.ParseBool); err == nil {
			flagSet.BoolVarP(target, spec.name, spec.shorthand, value, spec.description)
		}
	case *int:
		var value int
		if value, err = parseDefault(spec, strconv.Atoi); err == nil {
			flagSet.IntVarP(target, spec.name, spec.shorthand, value, spec.description)
		}
	case *float64:
		var value float64
		parseFloat := func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
		if value, err = parseDefault(spec, parseFloat); err == nil {
			flagSet.Float64VarP(target, spec.name, spec.shorthand, value, spec.description)
		}
	case *[]string:
		var value []string
		if spec.defaultValue != "" {
			value = strings.Split(spec.defaultValue, ",")
		}
		flagSet.StringSliceVarP(target, spec.name, spec.shorthand, value, spec.description)
	default:
		return fmt.Errorf("unsupported type %s for flag --%s", fieldValue.Type(), spec.name)
	}
	return err
}

// parseDefault parses the default tag, or returns the zero value when
// the tag is absent.
func parseDefault[T any](spec flagSpec, parse func(string) (T, error)) (T, error) {
	if spec.defaultValue == "" {
		var zero T
		return zero, nil
	}
	value, err := parse(spec.defaultValue)
	if err != nil {
		return value, fmt.Errorf("default for --%s: %w", spec.name, err)
	}
	return value, nil
}
