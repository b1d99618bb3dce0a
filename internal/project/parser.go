// Package project reads and writes the plain-text project definition format:
//
//	3
//
//	1 Design   2 1 0
//	2 Build    3 2 1 0
//	3 Document 1 1 1 0
//
// The first line holds the task count. Every task line carries the id, a
// single-word name, the duration, the staff requirement and the predecessor
// ids, terminated by a 0. Blank lines are ignored.
package project

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/asaskevich/govalidator"

	"github.com/aristath/crewplan/internal/scheduler"
)

const sentinel = "0"

// MalformedInputError reports a line that does not follow the format.
type MalformedInputError struct {
	Line   int // 1-based, 0 when the problem is not tied to one line
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *MalformedInputError) Unwrap() []error {
	if e.Err == nil {
		return []error{scheduler.ErrMalformedInput}
	}
	return []error{scheduler.ErrMalformedInput, e.Err}
}

// taskLine holds the leading fields of a task line before conversion.
type taskLine struct {
	ID       string `valid:"numeric,required"`
	Name     string `valid:"required"`
	Duration string `valid:"numeric,required"`
	Staff    string `valid:"numeric,required"`
}

// ParseFile reads a project definition from disk.
func ParseFile(path string) ([]scheduler.TaskSpec, error) {
	if path == "" {
		return nil, goerrors.ErrValidation{
			Caller: "ParseFile",
			Issue: goerrors.ErrNilInput{
				InputName: "path",
			},
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening project %s: %w", path, err)
	}
	defer f.Close()

	specs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return specs, nil
}

// Parse reads a project definition.
func Parse(r io.Reader) ([]scheduler.TaskSpec, error) {
	scanner := bufio.NewScanner(r)

	lineNo := 0
	count := -1
	var specs []scheduler.TaskSpec

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if count < 0 {
			n, err := parseCount(fields)
			if err != nil {
				return nil, &MalformedInputError{Line: lineNo, Reason: "invalid task count", Err: err}
			}
			count = n
			specs = make([]scheduler.TaskSpec, 0, count)
			continue
		}

		spec, err := parseTask(fields)
		if err != nil {
			return nil, &MalformedInputError{Line: lineNo, Reason: "invalid task line", Err: err}
		}
		specs = append(specs, spec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading project: %w", err)
	}

	if count < 0 {
		return nil, &MalformedInputError{Reason: "missing task count"}
	}
	if len(specs) != count {
		return nil, &MalformedInputError{
			Reason: fmt.Sprintf("task count is %d but %d tasks are defined", count, len(specs)),
		}
	}

	return specs, nil
}

func parseCount(fields []string) (int, error) {
	if len(fields) != 1 {
		return 0, fmt.Errorf("expected a single number, got %d fields", len(fields))
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, goerrors.ErrValidation{
			Caller: "parseCount",
			Issue: goerrors.ErrNegativeInput{
				InputName: "count",
			},
		}
	}
	return n, nil
}

func parseTask(fields []string) (scheduler.TaskSpec, error) {
	// id name duration staff 0
	if len(fields) < 5 {
		return scheduler.TaskSpec{}, fmt.Errorf("expected at least 5 fields, got %d", len(fields))
	}

	line := taskLine{
		ID:       fields[0],
		Name:     fields[1],
		Duration: fields[2],
		Staff:    fields[3],
	}
	if _, err := govalidator.ValidateStruct(&line); err != nil {
		return scheduler.TaskSpec{}, err
	}

	spec := scheduler.TaskSpec{Name: line.Name}
	var err error
	if spec.ID, err = strconv.Atoi(line.ID); err != nil {
		return scheduler.TaskSpec{}, err
	}
	if spec.ID == 0 {
		return scheduler.TaskSpec{}, goerrors.ErrInvalidInput{InputName: "id"}
	}
	if spec.Duration, err = strconv.Atoi(line.Duration); err != nil {
		return scheduler.TaskSpec{}, err
	}
	if spec.Staff, err = strconv.Atoi(line.Staff); err != nil {
		return scheduler.TaskSpec{}, err
	}

	rest := fields[4:]
	end := -1
	for i, tok := range rest {
		if tok == sentinel {
			end = i
			break
		}
		if !govalidator.IsNumeric(tok) {
			return scheduler.TaskSpec{}, fmt.Errorf("predecessor %q is not a task id", tok)
		}
		id, err := strconv.Atoi(tok)
		if err != nil {
			return scheduler.TaskSpec{}, err
		}
		if id <= 0 {
			return scheduler.TaskSpec{}, fmt.Errorf("predecessor %q is not a task id", tok)
		}
		spec.Predecessors = append(spec.Predecessors, id)
	}

	if end < 0 {
		return scheduler.TaskSpec{}, fmt.Errorf("predecessor list is not terminated by %s", sentinel)
	}
	if end != len(rest)-1 {
		return scheduler.TaskSpec{}, fmt.Errorf("unexpected fields after terminating %s", sentinel)
	}

	return spec, nil
}

// Format writes specs in the project definition format.
func Format(w io.Writer, specs []scheduler.TaskSpec) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%d\n\n", len(specs))
	for _, spec := range specs {
		if strings.ContainsAny(spec.Name, " \t\n") || spec.Name == "" {
			return goerrors.ErrValidation{
				Caller: "Format",
				Issue: goerrors.ErrInvalidInput{
					InputName: fmt.Sprintf("name of task %d", spec.ID),
				},
			}
		}

		fmt.Fprintf(bw, "%d %s %d %d", spec.ID, spec.Name, spec.Duration, spec.Staff)
		for _, predID := range spec.Predecessors {
			fmt.Fprintf(bw, " %d", predID)
		}
		fmt.Fprintf(bw, " %s\n", sentinel)
	}

	return bw.Flush()
}
