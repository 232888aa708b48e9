package main

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/nixxel-company-limited/escpos-transport/adapter"
	"github.com/nixxel-company-limited/escpos-transport/server"
	"github.com/spf13/viper"
)

func main() {
	// Configuration comes from environment variables only.
	viper.AutomaticEnv()
	viper.SetDefault("SERVER_ADDRESS", "localhost:9100")
	viper.SetDefault("PRINTER_TARGET", "usb")
	viper.SetDefault("PRINTER_TIMEOUT", adapter.DefaultTimeout)

	device, err := buildAdapter()
	if err != nil {
		log.Fatalf("printer setup failed: %v", err)
	}
	defer device.Close()

	address := viper.GetString("SERVER_ADDRESS")
	log.Printf("Server will listen on: %s", address)

	svr := server.New(device, address)
	if err := svr.Start(); err != nil {
		log.Fatal(err)
	}
}

// buildAdapter selects the sink from PRINTER_TARGET: "usb" (default),
// "network" (PRINTER_HOST/PRINTER_PORT) or "file" (PRINTER_FILE).
func buildAdapter() (adapter.Adapter, error) {
	switch target := viper.GetString("PRINTER_TARGET"); target {
	case "usb":
		return buildUSBAdapter()
	case "network":
		host := viper.GetString("PRINTER_HOST")
		if host == "" {
			return nil, errors.New("PRINTER_HOST is required for a network printer")
		}
		return adapter.NewNetworkAdapter(host, uint16(viper.GetUint("PRINTER_PORT")))
	case "file":
		path := viper.GetString("PRINTER_FILE")
		if path == "" {
			return nil, errors.New("PRINTER_FILE is required for a file printer")
		}
		return adapter.NewFileAdapter(path)
	default:
		return nil, fmt.Errorf("unknown printer target %q", target)
	}
}

// buildUSBAdapter binds by identity when PRINTER_VID/PRINTER_PID are set,
// otherwise discovers the first printer on the bus. PRINTER_OPTIONAL=true
// makes an absent printer non-fatal: jobs are then discarded.
func buildUSBAdapter() (adapter.Adapter, error) {
	var (
		a   *adapter.USBAdapter
		err error
	)

	vid, pid := viper.GetString("PRINTER_VID"), viper.GetString("PRINTER_PID")
	switch {
	case vid != "" && pid != "":
		var v, p uint64
		if v, err = strconv.ParseUint(vid, 16, 16); err != nil {
			return nil, fmt.Errorf("PRINTER_VID %q is not 16-bit hex", vid)
		}
		if p, err = strconv.ParseUint(pid, 16, 16); err != nil {
			return nil, fmt.Errorf("PRINTER_PID %q is not 16-bit hex", pid)
		}
		a, err = adapter.NewUSBAdapter(uint16(v), uint16(p))
	case viper.GetBool("PRINTER_OPTIONAL"):
		a, err = adapter.NewUSBAdapterTolerant()
	default:
		a, err = adapter.NewUSBAdapterAuto()
	}
	if err != nil {
		return nil, err
	}

	if !a.Connected() {
		log.Println("no printer found; print jobs will be discarded")
	}
	a.SetTimeout(viper.GetDuration("PRINTER_TIMEOUT"))
	return a, nil
}
