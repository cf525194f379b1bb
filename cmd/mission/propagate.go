package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log/level"
	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/prop"
	"github.com/lanan07075/aldev-sub001/scenario"
	"github.com/spf13/cobra"
)

type memberRecord struct {
	Index    int             `yaml:"index"`
	Initial  stateRecord     `yaml:"initial"`
	Final    *stateRecord    `yaml:"final,omitempty"`
	Elements *elementsRecord `yaml:"elements,omitempty"`
	Error    string          `yaml:"error,omitempty"`
}

type ephemerisDoc struct {
	Scenario     string              `yaml:"scenario"`
	Propagator   string              `yaml:"propagator"`
	Frame        string              `yaml:"frame"`
	Inversion    *inversionRecord    `yaml:"inversion,omitempty"`
	States       []stateRecord       `yaml:"states"`
	Measurements []measurementRecord `yaml:"measurements,omitempty"`
	Ensemble     []memberRecord      `yaml:"ensemble,omitempty"`
}

func propagateCommand() *cobra.Command {
	var (
		output   string
		plot     bool
		ensemble bool
	)
	cmd := &cobra.Command{
		Use:   "propagate <scenario>",
		Short: "propagate a scenario over its output span and write the states as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			states, err := sc.Propagate()
			if err != nil {
				return fmt.Errorf("propagating %s: %w", args[0], err)
			}
			doc := ephemerisDoc{Scenario: args[0], Propagator: sc.Type, States: make([]stateRecord, len(states))}
			for i, s := range states {
				doc.States[i] = newStateRecord(s)
			}
			if len(states) > 0 {
				doc.Frame = states[0].Frame.String()
			}
			measurements := sc.Measure(states)
			for _, m := range measurements {
				doc.Measurements = append(doc.Measurements, newMeasurementRecord(m))
			}
			if sc.Inversion != nil {
				doc.Inversion = newInversionRecord(*sc.Inversion)
			}
			if ensemble {
				members, err := sc.Ensemble()
				if err != nil {
					return err
				}
				for _, m := range members {
					rec := memberRecord{Index: m.Index, Initial: newStateRecord(m.Initial)}
					if m.Err != nil {
						rec.Error = m.Err.Error()
					} else if len(m.States) > 0 {
						final := newStateRecord(m.States[len(m.States)-1])
						rec.Final = &final
					}
					if m.Elements != nil {
						e := newElementsRecord(*m.Elements)
						rec.Elements = &e
					}
					doc.Ensemble = append(doc.Ensemble, rec)
				}
			}
			if err := writeYAML(output, doc); err != nil {
				return err
			}
			level.Debug(logger).Log("msg", "propagated", "scenario", args[0], "states", len(states))
			if ip, ok := sc.Propagator.(*prop.Integrating); ok {
				ip.LogStatus()
			}

			rows := [][2]string{
				{"scenario", args[0]},
				{"propagator", sc.Type},
				{"span", fmt.Sprintf("%s to %s", sc.Output.Start.Format("2006-01-02 15:04:05"), sc.Output.End.Format("2006-01-02 15:04:05"))},
				{"states", fmt.Sprintf("%d", len(states))},
			}
			if len(sc.Stations) > 0 {
				rows = append(rows, [2]string{"measurements", fmt.Sprintf("%d from %d stations", len(measurements), len(sc.Stations))})
			}
			if len(states) > 0 {
				o := smd.ToElements(states[len(states)-1].In(smd.J2000), sc.Body)
				rows = append(rows, [2]string{"final orbit", o.String()})
			}
			if sc.Inversion != nil && !sc.Inversion.Converged {
				rows = append(rows, [2]string{"inversion", warnStyle.Render(fmt.Sprintf("not converged, residual %.3g", sc.Inversion.Residual))})
			}
			fmt.Fprintln(os.Stderr, summary("propagation", rows))
			if plot {
				fmt.Fprintln(os.Stderr, altitudePlot(states, sc.Body))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "YAML output file, - for stdout")
	cmd.Flags().BoolVar(&plot, "plot", false, "plot the altitude in the terminal")
	cmd.Flags().BoolVar(&ensemble, "ensemble", false, "also run the dispersed ensemble of the scenario")
	return cmd
}
