package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-haptics/internal/haptic"
)

type discoverResult struct {
	Backend            string `json:"backend"`
	DeviceClass        string `json:"device_class"`
	DeviceName         string `json:"device_name"`
	ProductName        string `json:"product_name"`
	ActuationSupported bool   `json:"actuation_supported"`
	BuiltIn            bool   `json:"built_in"`
	DeviceID           string `json:"device_id"`
}

func newDiscoverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover the actuator device without opening it",
		Args:  cobra.NoArgs,
		RunE:  runDiscover,
	}
	cmd.Flags().String("class", "", "Registry class to search (default from config)")
	return cmd
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	class, _ := cmd.Flags().GetString("class")
	if class == "" {
		class = cfg.Haptics.DeviceClass
	}

	backend, err := haptic.OpenBackend(cfg.Haptics)
	if err != nil {
		return fmt.Errorf("opening backend: %w", err)
	}
	desc, err := backend.Discover(class, newLogger(cmd, cfg))
	if err != nil {
		return err
	}

	res := discoverResult{
		Backend:            backend.Name,
		DeviceClass:        class,
		DeviceName:         desc.DeviceName,
		ProductName:        desc.ProductName,
		ActuationSupported: desc.ActuationSupported,
		BuiltIn:            desc.BuiltIn,
		DeviceID:           strconv.FormatUint(desc.DeviceID, 10),
	}

	out := newOutputFormatter(cmd)
	if out.jsonMode {
		return out.printJSON(res)
	}
	out.printf("Device:     %s\n", res.DeviceName)
	out.printf("Product:    %s\n", res.ProductName)
	out.printf("Device ID:  %s\n", res.DeviceID)
	out.printf("Built-in:   %t\n", res.BuiltIn)
	out.printf("Actuation:  %t\n", res.ActuationSupported)
	out.printf("Backend:    %s (%s)\n", res.Backend, res.DeviceClass)
	return nil
}
