package main

import (
	"fmt"
	"os"
	"strings"

	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/norad"
	"github.com/spf13/cobra"
)

// readTLEs reads every element set of a file: blocks of two lines, optionally preceded by a
// name line.
func readTLEs(path string) ([]smd.MeanElements, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var (
		sets  []smd.MeanElements
		block []string
	)
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, " \r\t")
		if line == "" {
			continue
		}
		block = append(block, line)
		if strings.HasPrefix(line, "2 ") && len(block) >= 2 {
			m, err := smd.ParseTLE(strings.Join(block, "\n"))
			if err != nil {
				return sets, fmt.Errorf("%s:%d: %w", path, n+1, err)
			}
			sets = append(sets, m)
			block = block[:0]
		}
	}
	if len(block) > 0 {
		return sets, fmt.Errorf("%s: incomplete element set at the end of the file", path)
	}
	return sets, nil
}

func tleCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "tle <file>",
		Short: "parse the element sets of a TLE file and write them as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, err := readTLEs(args[0])
			if err != nil {
				return err
			}
			records := make([]elementsRecord, len(sets))
			for i, m := range sets {
				records[i] = newElementsRecord(m)
			}
			return writeYAML(output, records)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "YAML output file, - for stdout")
	return cmd
}

func classifyCommand() *cobra.Command {
	var hint int
	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "classify the element sets of a TLE file as near earth or deep space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, err := readTLEs(args[0])
			if err != nil {
				return err
			}
			for _, m := range sets {
				if _, err := norad.Resolve(m, hint); err != nil {
					return fmt.Errorf("satellite %05d: %w", m.SatelliteNumber, err)
				}
				fmt.Println(summary(fmt.Sprintf("%05d", m.SatelliteNumber), elementsRows(m, hint)))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&hint, "hint", norad.HintFromElements, "ephemeris type (0 SGP, 1 SGP4, 2 SGP8, 3 SDP4, 4 SDP8), default from the elements")
	return cmd
}
