// Package config loads the tuning parameters of the exchange layer.
//
// Tuning values are resolved in three layers, later layers taking
// precedence:
//
//  1. Compiled-in defaults ([Default])
//  2. An optional file, TOML or YAML by extension
//  3. SOFTWIFI_* environment variables
//
// The merged result is validated before it is returned:
//
//	tun, err := config.Load("softwifi.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	core, err := wifi.New(driver, wifi.WithTuning(tun))
//
// A TOML file uses the same keys as the YAML form:
//
//	rx_queue_size = 8
//	tx_queue_size = 3
//	country_code = "US"
//	power_save = "min"
package config
