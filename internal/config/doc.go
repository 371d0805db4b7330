// Package config loads the payrail.toml runtime configuration.
//
// Every field has a usable default, so a missing file yields a working
// configuration pointed at localhost; CLI flags override individual values
// after loading.
package config
