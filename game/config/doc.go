// Package config provides scenario and process configuration for the
// warehouse simulator.
//
// The config package handles:
//   - Loading scenarios from JSON, YAML or plain puzzle text files
//   - Scenario validation, caching and listing
//   - Default scenario selection
//   - Process settings from the environment and .env files
//
// Scenario Format:
//
// A scenario names a layout in the . # O @ alphabet, whether it is expanded
// to double width, and optionally an instruction stream plus the GPS sum
// that stream is expected to produce:
//
//	{
//	  "name": "reference",
//	  "layout": ["##########", "#..O..O.O#", "..."],
//	  "doubled": false,
//	  "instructions": "<vv>^<v^>...",
//	  "expected_gps_sum": 10092
//	}
//
// A .txt file holds raw puzzle text instead: the layout, a blank line, then
// the instruction stream. Its file name becomes the scenario name.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	scenario, err := manager.LoadConfig("reference")
//
//	settings, err := config.LoadSettings()
//	fmt.Println(settings.Addr())
package config
