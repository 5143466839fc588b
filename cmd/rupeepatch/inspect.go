package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dcrodman/rupeepatch/internal/image"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [exe]",
	Short: "Lists the methods of a game executable",
	Run:   InspectCommand,
	Args:  cobra.MaximumNArgs(1),
}

var (
	MethodFlag string
	FormatFlag string
	RawFlag    bool
)

type methodListing struct {
	Name         string   `yaml:"name"`
	Params       int      `yaml:"params"`
	Static       bool     `yaml:"static,omitempty"`
	Locals       []string `yaml:"locals,omitempty"`
	Instructions []string `yaml:"instructions"`
}

type moduleListing struct {
	Module            string          `yaml:"module"`
	Version           string          `yaml:"version"`
	LargeAddressAware bool            `yaml:"large_address_aware"`
	Patched           bool            `yaml:"patched"`
	Methods           []methodListing `yaml:"methods"`
}

var rawConfig = spew.ConfigState{
	Indent:                  "  ",
	MaxDepth:                6,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func InspectCommand(cmd *cobra.Command, args []string) {
	cfg, _ := loadConfig(args)
	requireExe(cfg)

	m, err := image.Load(cfg.ExePath)
	if err != nil {
		fmt.Println("error loading executable:", err)
		os.Exit(1)
	}

	if RawFlag {
		if err := dumpRaw(os.Stdout, m, MethodFlag); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		return
	}

	listing, err := buildListing(m, cfg.PatchOptions().Marker, MethodFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := writeListing(os.Stdout, listing, FormatFlag); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// splitMethodName splits "Terraria.Main.DrawInventory" into its type and method.
func splitMethodName(full string) (string, string, error) {
	i := strings.LastIndexByte(full, '.')
	if i <= 0 || i == len(full)-1 {
		return "", "", errors.Newf("method %q must be given as Type.Method", full)
	}
	return full[:i], full[i+1:], nil
}

func listMethod(m *image.Method) methodListing {
	l := methodListing{
		Name:   m.Owner + "." + m.Name,
		Params: m.Params,
		Static: m.Static,
	}
	if m.Body == nil {
		return l
	}
	for _, local := range m.Body.Locals {
		l.Locals = append(l.Locals, fmt.Sprintf("V_%d %s", local.Slot, local.Type))
	}
	if text := strings.TrimSuffix(m.Body.Listing(), "\n"); text != "" {
		l.Instructions = strings.Split(text, "\n")
	}
	return l
}

func buildListing(m *image.Module, marker image.Marker, method string) (*moduleListing, error) {
	listing := &moduleListing{
		Module:            m.Name,
		Version:           m.Version,
		LargeAddressAware: m.LargeAddressAware,
		Patched:           image.IsPatched(m, marker),
	}

	if method != "" {
		owner, name, err := splitMethodName(method)
		if err != nil {
			return nil, err
		}
		found, err := m.ResolveMethod(owner, name)
		if err != nil {
			return nil, err
		}
		listing.Methods = append(listing.Methods, listMethod(found))
		return listing, nil
	}

	for _, t := range m.Types {
		for _, meth := range t.Methods {
			if meth.Body != nil {
				listing.Methods = append(listing.Methods, listMethod(meth))
			}
		}
	}
	return listing, nil
}

func writeListing(w io.Writer, l *moduleListing, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(l); err != nil {
			return errors.Wrap(err, "encoding listing")
		}
		return enc.Close()
	case "text", "":
	default:
		return errors.Newf("unknown format %q", format)
	}

	fmt.Fprintf(w, "%s %s (patched: %t, large address aware: %t)\n", l.Module, l.Version, l.Patched, l.LargeAddressAware)
	for _, meth := range l.Methods {
		fmt.Fprintf(w, "\n%s (%d params)\n", meth.Name, meth.Params)
		for _, local := range meth.Locals {
			fmt.Fprintf(w, "  .local %s\n", local)
		}
		for _, ins := range meth.Instructions {
			fmt.Fprintf(w, "  %s\n", ins)
		}
	}
	return nil
}

func dumpRaw(w io.Writer, m *image.Module, method string) error {
	if method == "" {
		rawConfig.Fdump(w, m.Types)
		return nil
	}
	owner, name, err := splitMethodName(method)
	if err != nil {
		return err
	}
	found, err := m.ResolveMethod(owner, name)
	if err != nil {
		return err
	}
	rawConfig.Fdump(w, found)
	return nil
}
