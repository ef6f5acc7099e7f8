package config

import (
	"flag"
	"io"
)

// flagValues receives parsed command-line values before they are merged.
type flagValues struct {
	name     string
	url      string
	bind     string
	publish  string
	port     int
	devices  string
	verbose  string
	settings string
}

// newFlagSet declares every option under its short and long name.
func newFlagSet() (*flag.FlagSet, *flagValues) {
	v := &flagValues{}
	fs := flag.NewFlagSet("huebridge", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	stringVar(fs, &v.name, "n", "name", DefaultName, "instance name. used as mqtt client id and as prefix for connected topic")
	stringVar(fs, &v.url, "u", "url", DefaultURL, "mqtt broker url")
	stringVar(fs, &v.bind, "b", "bind", DefaultBind, "binding address")
	stringVar(fs, &v.publish, "e", "publish", "", "publishing host advertised in setup.xml")
	fs.IntVar(&v.port, "p", DefaultPort, "port")
	fs.IntVar(&v.port, "port", DefaultPort, "port")
	stringVar(fs, &v.devices, "c", "config", DefaultDevicesPath, "device configuration file")
	stringVar(fs, &v.verbose, "v", "verbose", DefaultLevel, `possible values: "error", "warn", "info", "debug"`)
	stringVar(fs, &v.settings, "s", "settings", "", "optional settings file (yaml)")

	return fs, v
}

func stringVar(fs *flag.FlagSet, p *string, short, long, value, usage string) {
	fs.StringVar(p, short, value, usage)
	fs.StringVar(p, long, value, usage)
}

// applyFlags copies only the flags that were set on the command line.
func applyFlags(cfg *Config, fs *flag.FlagSet, v *flagValues) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n", "name":
			cfg.Bridge.Name = v.name
		case "u", "url":
			cfg.MQTT.URL = v.url
		case "b", "bind":
			cfg.API.Bind = v.bind
		case "e", "publish":
			cfg.API.Publish = v.publish
		case "p", "port":
			cfg.API.Port = v.port
		case "c", "config":
			cfg.Devices.Path = v.devices
		case "v", "verbose":
			cfg.Logging.Level = v.verbose
		}
	})
}
