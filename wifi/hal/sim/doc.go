// Package sim implements a simulated radio driver for tests and examples.
//
// Radios attach to a shared [Air]. Frames sent by one radio are routed by
// destination MAC address to the started interfaces of the other radios on
// the same air; broadcast frames reach every other started interface.
// Scans list the soft-APs started on the air and connects associate with a
// matching soft-AP.
//
// # Callback context
//
// Each radio runs one interrupt goroutine that delivers every callback
// serially, in the order the radio posted them, after the configured
// latency. Driver methods never hold the radio's lock while a callback
// runs, so callbacks may re-enter [Radio.FreeRxBuffer].
//
// # Leak detection
//
// Every received buffer stays outstanding until it is freed. Freeing an
// unknown handle fails with [pkg.CodeInvalidArg] and is counted as a
// double free. [Radio.Close] reports outstanding buffers and an unfreed
// scan list.
//
// # Usage
//
//	air := sim.NewAir()
//	ap := sim.New(air)
//	sta := sim.New(air)
//
//	apDev, apCtrl, _ := wifi.NewWithConfig(ap, wifi.AccessPointConfig(apCfg))
//	staDev, staCtrl, _ := wifi.NewWithConfig(sta, wifi.ClientConfig(staCfg))
//
//	apCtrl.Start(ctx)
//	staCtrl.Start(ctx)
//	staCtrl.Connect(ctx)
package sim
