package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the configuration struct for the service.
type Config struct {
	// Markets represents the scanned markets.
	Markets []string
	// FMPAPIkey is the FMP service API Key.
	FMPAPIKey string
	// DataFilePath optionally serves market data from a file instead of
	// the FMP api, used for offline runs.
	DataFilePath string
	// ItemsFilePath is the filepath to the confluence items file.
	ItemsFilePath string
	// WeightsPath optionally loads the confluence weight table from a
	// yaml file.
	WeightsPath string
	// ScanIntervalMinutes is the period between scans in minutes.
	ScanIntervalMinutes int
	// MergeOverlapping toggles overlap based zone clustering.
	MergeOverlapping bool
	// MergeIdentical toggles proximity based zone clustering.
	MergeIdentical bool
	// DBEndpoint is the database connection endpoint. Persistence is
	// skipped when unset.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for scanner service"))
	}
	if cfg.FMPAPIKey == "" && cfg.DataFilePath == "" {
		errs = errors.Join(errs, fmt.Errorf("either an fmp api key or a data filepath is required"))
	}
	if cfg.ItemsFilePath == "" {
		errs = errors.Join(errs, fmt.Errorf("confluence items filepath cannot be an empty string"))
	}
	if cfg.ScanIntervalMinutes < 0 {
		errs = errors.Join(errs, fmt.Errorf("scan interval cannot be negative, got %d", cfg.ScanIntervalMinutes))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	err = cfg.registerFlag("markets", &cfg.Markets, "the scanned markets")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("fmpapikey", &cfg.FMPAPIKey, "the FMP api key")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("datafilepath", &cfg.DataFilePath, "the offline market data filepath")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("itemsfilepath", &cfg.ItemsFilePath, "the confluence items filepath")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("weightspath", &cfg.WeightsPath, "the confluence weights filepath")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("scanintervalminutes", &cfg.ScanIntervalMinutes, "the period between scans in minutes")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("mergeoverlapping", &cfg.MergeOverlapping, "merge overlapping zones during discovery")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("mergeidentical", &cfg.MergeIdentical, "merge near identical zones during discovery")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbendpoint", &cfg.DBEndpoint, "the database connection endpoint")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbuser", &cfg.DBUser, "the database user")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbpass", &cfg.DBPass, "the database user pass")
	if err != nil {
		return err
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
