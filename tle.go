package smd

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	secondsPerDay = 86400.0
	revPerDay     = twoπ / secondsPerDay // rad/s in one revolution per day
)

// MeanElements is an averaged (mean) element set, as distributed in two-line element sets.
// These elements only make sense for the analytic theory that produced them: there is no
// conversion to a state without running that theory.
// All fields are SI: angles in radians, mean motion in rad/s and its derivatives in rad/s^2 and rad/s^3.
type MeanElements struct {
	Name            string
	SatelliteNumber int
	Classification  byte
	Designator      string
	Epoch           time.Time

	MeanMotion     float64 // Kozai mean motion
	MeanMotionDot  float64 // first derivative divided by two
	MeanMotionDDot float64 // second derivative divided by six
	BStar          float64 // drag term, per earth radius

	Eccentricity float64
	Inclination  float64
	RAAN         float64
	ArgPerigee   float64
	MeanAnomaly  float64

	EphemerisType    int
	ElementNumber    int
	RevolutionNumber int
}

// InitialEpoch implements the InitialCondition interface.
func (m MeanElements) InitialEpoch() time.Time {
	return m.Epoch
}

// Validate returns an error if the elements cannot be propagated.
func (m MeanElements) Validate() error {
	if !(m.MeanMotion > 0) {
		return fmt.Errorf("mean motion must be positive, got %g", m.MeanMotion)
	}
	if m.Eccentricity < 0 || m.Eccentricity >= 1 {
		return fmt.Errorf("eccentricity must be in [0, 1), got %g", m.Eccentricity)
	}
	if m.Inclination < 0 || m.Inclination > math.Pi {
		return fmt.Errorf("inclination must be in [0, π], got %g", m.Inclination)
	}
	return nil
}

// ErrChecksum is returned when a TLE line checksum does not match its content.
var ErrChecksum = errors.New("checksum mismatch")

// ParseTLE parses a two or three line element set (the optional first line is the name).
func ParseTLE(text string) (MeanElements, error) {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(text), "\n") {
		if l = strings.TrimRight(l, " \r\t"); l != "" {
			lines = append(lines, l)
		}
	}
	m := MeanElements{}
	switch len(lines) {
	case 2:
	case 3:
		m.Name = strings.TrimSpace(lines[0])
		lines = lines[1:]
	default:
		return m, fmt.Errorf("TLE must have 2 or 3 lines, got %d", len(lines))
	}
	if err := m.parseLine1(lines[0]); err != nil {
		return m, fmt.Errorf("line 1: %w", err)
	}
	if err := m.parseLine2(lines[1]); err != nil {
		return m, fmt.Errorf("line 2: %w", err)
	}
	return m, m.Validate()
}

func checkLine(line string, number byte) error {
	if len(line) != 69 {
		return fmt.Errorf("must be 69 characters, got %d", len(line))
	}
	if line[0] != number {
		return fmt.Errorf("must start with %c", number)
	}
	expected, err := strconv.Atoi(line[68:69])
	if err != nil {
		return fmt.Errorf("invalid checksum digit: %w", err)
	}
	if sum := checksum(line); sum != expected {
		return fmt.Errorf("%w: got %d, computed %d", ErrChecksum, expected, sum)
	}
	return nil
}

// checksum returns the modulo 10 checksum of the first 68 characters: digits count for their
// value and minus signs count for one.
func checksum(line string) int {
	sum := 0
	for _, c := range line[:68] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

func parseFloat(field, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, field, err)
	}
	return v, nil
}

// parseExp parses the "assumed decimal point" notation, e.g. " 12345-3" is 0.12345e-3.
func parseExp(field, name string) (float64, error) {
	f := strings.TrimSpace(field)
	if f == "" {
		return 0, nil
	}
	if len(f) < 3 {
		return 0, fmt.Errorf("invalid %s %q", name, field)
	}
	mantissa, exponent := f[:len(f)-2], f[len(f)-2:]
	sign := 1.0
	switch mantissa[0] {
	case '-':
		sign = -1
		mantissa = mantissa[1:]
	case '+':
		mantissa = mantissa[1:]
	}
	m, err := strconv.ParseFloat("0."+mantissa, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s mantissa %q: %w", name, field, err)
	}
	e, err := strconv.Atoi(exponent)
	if err != nil {
		return 0, fmt.Errorf("invalid %s exponent %q: %w", name, field, err)
	}
	return sign * m * math.Pow10(e), nil
}

func (m *MeanElements) parseLine1(line string) error {
	if err := checkLine(line, '1'); err != nil {
		return err
	}
	var err error
	if m.SatelliteNumber, err = strconv.Atoi(strings.TrimSpace(line[2:7])); err != nil {
		return fmt.Errorf("invalid satellite number: %w", err)
	}
	m.Classification = line[7]
	m.Designator = strings.TrimSpace(line[9:17])
	yy, err := strconv.Atoi(strings.TrimSpace(line[18:20]))
	if err != nil {
		return fmt.Errorf("invalid epoch year: %w", err)
	}
	doy, err := parseFloat(line[20:32], "epoch day")
	if err != nil {
		return err
	}
	m.Epoch = tleEpoch(yy, doy)
	ndot, err := parseFloat(strings.Replace(line[33:43], ".", "0.", 1), "mean motion derivative")
	if err != nil {
		return err
	}
	m.MeanMotionDot = ndot * revPerDay / secondsPerDay
	nddot, err := parseExp(line[44:52], "mean motion second derivative")
	if err != nil {
		return err
	}
	m.MeanMotionDDot = nddot * revPerDay / (secondsPerDay * secondsPerDay)
	if m.BStar, err = parseExp(line[53:61], "BSTAR"); err != nil {
		return err
	}
	if t := strings.TrimSpace(line[62:63]); t != "" {
		if m.EphemerisType, err = strconv.Atoi(t); err != nil {
			return fmt.Errorf("invalid ephemeris type: %w", err)
		}
	}
	if n := strings.TrimSpace(line[64:68]); n != "" {
		if m.ElementNumber, err = strconv.Atoi(n); err != nil {
			return fmt.Errorf("invalid element number: %w", err)
		}
	}
	return nil
}

func (m *MeanElements) parseLine2(line string) error {
	if err := checkLine(line, '2'); err != nil {
		return err
	}
	satnum, err := strconv.Atoi(strings.TrimSpace(line[2:7]))
	if err != nil {
		return fmt.Errorf("invalid satellite number: %w", err)
	}
	if satnum != m.SatelliteNumber {
		return fmt.Errorf("satellite number %d does not match line 1 (%d)", satnum, m.SatelliteNumber)
	}
	angles := []struct {
		field string
		name  string
		dst   *float64
	}{
		{line[8:16], "inclination", &m.Inclination},
		{line[17:25], "RAAN", &m.RAAN},
		{line[34:42], "argument of perigee", &m.ArgPerigee},
		{line[43:51], "mean anomaly", &m.MeanAnomaly},
	}
	for _, a := range angles {
		deg, err := parseFloat(a.field, a.name)
		if err != nil {
			return err
		}
		*a.dst = deg * deg2rad
	}
	if m.Eccentricity, err = parseFloat("0."+strings.TrimSpace(line[26:33]), "eccentricity"); err != nil {
		return err
	}
	n, err := parseFloat(line[52:63], "mean motion")
	if err != nil {
		return err
	}
	m.MeanMotion = n * revPerDay
	if r := strings.TrimSpace(line[63:68]); r != "" {
		if m.RevolutionNumber, err = strconv.Atoi(r); err != nil {
			return fmt.Errorf("invalid revolution number: %w", err)
		}
	}
	return nil
}

// tleEpoch converts the two digit year and fractional day of year to a time.
func tleEpoch(yy int, doy float64) time.Time {
	year := 1900 + yy
	if yy < 57 {
		year = 2000 + yy
	}
	base := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(math.Round((doy - 1) * secondsPerDay * 1e9)))
}

// formatExp formats a value in the eight character assumed decimal point notation.
func formatExp(v float64) string {
	if v == 0 {
		return " 00000-0"
	}
	s := byte(' ')
	if v < 0 {
		s = '-'
	}
	a := math.Abs(v)
	exp := int(math.Floor(math.Log10(a))) + 1
	mant := int(math.Round(a / math.Pow10(exp) * 1e5))
	if mant >= 100000 {
		mant /= 10
		exp++
	}
	es := byte('+')
	if exp < 0 {
		es = '-'
	}
	if exp > 9 || exp < -9 {
		return " 00000-0"
	}
	return fmt.Sprintf("%c%05d%c%d", s, mant, es, int(math.Abs(float64(exp))))
}

// TLE formats these elements as a two-line element set.
func (m MeanElements) TLE() (line1, line2 string) {
	e := m.Epoch.UTC()
	start := time.Date(e.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	doy := 1 + e.Sub(start).Seconds()/secondsPerDay
	ndot := m.MeanMotionDot * secondsPerDay / revPerDay
	ndotStr := strings.Replace(fmt.Sprintf("%.8f", math.Abs(ndot)), "0.", ".", 1)
	if ndot < 0 {
		ndotStr = "-" + ndotStr
	} else {
		ndotStr = " " + ndotStr
	}
	class := m.Classification
	if class == 0 {
		class = 'U'
	}
	line1 = fmt.Sprintf("1 %05d%c %-8s %02d%012.8f %s %s %s %d %4d", m.SatelliteNumber%100000, class, m.Designator,
		e.Year()%100, doy, ndotStr,
		formatExp(m.MeanMotionDDot*secondsPerDay*secondsPerDay/revPerDay), formatExp(m.BStar),
		m.EphemerisType%10, m.ElementNumber%10000)
	line1 += strconv.Itoa(checksum(line1 + " "))
	ecc := int(math.Round(m.Eccentricity * 1e7))
	if ecc > 9999999 {
		ecc = 9999999
	}
	line2 = fmt.Sprintf("2 %05d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%5d", m.SatelliteNumber%100000,
		Rad2deg(m.Inclination), Rad2deg(m.RAAN), ecc, Rad2deg(m.ArgPerigee), Rad2deg(m.MeanAnomaly),
		m.MeanMotion/revPerDay, m.RevolutionNumber%100000)
	line2 += strconv.Itoa(checksum(line2 + " "))
	return
}
