package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/invert"
	"github.com/lanan07075/aldev-sub001/norad"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

func invertCommand() *cobra.Command {
	var (
		epoch, frame, variant string
		position, velocity    string
		satellite             int
		bstar                 float64
		opts                  invert.Options
		output                string
	)
	cmd := &cobra.Command{
		Use:   "invert",
		Short: "find the mean elements reproducing a Cartesian state",
		Example: `  mission invert --epoch 2024-01-01T00:00:00Z --frame J2000 \
    --position 7000000,0,0 --velocity 0,4700,5900`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dt, err := time.Parse(time.RFC3339Nano, epoch)
			if err != nil {
				return fmt.Errorf("--epoch: %w", err)
			}
			f, err := smd.ParseFrame(frame)
			if err != nil {
				return fmt.Errorf("--frame: %w", err)
			}
			R, err := parseVector(position)
			if err != nil {
				return fmt.Errorf("--position: %w", err)
			}
			V, err := parseVector(velocity)
			if err != nil {
				return fmt.Errorf("--velocity: %w", err)
			}
			v, err := norad.ParseVariant(variant)
			if err != nil {
				return err
			}
			target := smd.NewState(dt.UTC(), f, R, V)
			template := smd.MeanElements{SatelliteNumber: satellite, BStar: bstar, EphemerisType: int(v)}
			res, err := invert.Invert(target, norad.New(int(v), smd.TEME), template, opts)
			if err != nil {
				return err
			}
			if err := writeYAML(output, newInversionRecord(res)); err != nil {
				return err
			}
			rows := append(elementsRows(res.Elements, int(v)),
				[2]string{"iterations", strconv.Itoa(res.Iterations)},
				[2]string{"residual", fmt.Sprintf("%.3g", res.Residual)})
			title := "inversion converged"
			if !res.Converged {
				title = warnStyle.Render("inversion NOT converged")
			}
			fmt.Fprintln(os.Stderr, summary(title, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&epoch, "epoch", "", "epoch of the state (RFC 3339)")
	cmd.Flags().StringVar(&frame, "frame", "J2000", "frame of the state")
	cmd.Flags().StringVar(&position, "position", "", "position x,y,z in m")
	cmd.Flags().StringVar(&velocity, "velocity", "", "velocity x,y,z in m/s")
	cmd.Flags().StringVar(&variant, "variant", "SGP4", "NORAD theory (promoted to deep space when needed)")
	cmd.Flags().IntVar(&satellite, "satellite", 99999, "satellite number of the result")
	cmd.Flags().Float64Var(&bstar, "bstar", 0, "drag term of the result, per earth radius")
	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", invert.DefaultOptions.Tolerance, "residual tolerance, in earth radii and earth radii per minute")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", invert.DefaultOptions.MaxIterations, "Newton-Raphson iteration cap")
	cmd.Flags().Float64Var(&opts.MaxEccentricity, "max-eccentricity", invert.DefaultOptions.MaxEccentricity, "highest osculating eccentricity accepted")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "YAML output file, - for stdout")
	for _, required := range []string{"epoch", "position", "velocity"} {
		_ = cmd.MarkFlagRequired(required)
	}
	return cmd
}

func parseVector(s string) (r3.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vec{}, errors.New("expected three comma separated components")
	}
	var c [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vec{}, err
		}
		c[i] = v
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}
