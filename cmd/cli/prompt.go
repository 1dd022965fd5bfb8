package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter asks the questions the analyze command needs answered when flags
// are missing.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter reading answers from in
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// ChooseColumn lists options by index and reads until a valid index is entered.
func (p *Prompter) ChooseColumn(label string, options []string) (string, error) {
	fmt.Fprintf(p.out, "\nSelect the column for %s:\n", label)
	for i, opt := range options {
		fmt.Fprintf(p.out, "%d - %s\n", i, opt)
	}
	for {
		answer, err := p.ask(fmt.Sprintf("Column number for %s: ", label))
		if err != nil {
			return "", err
		}
		idx, err := strconv.Atoi(answer)
		if err != nil {
			fmt.Fprintln(p.out, "Invalid input, enter a number.")
			continue
		}
		if idx < 0 || idx >= len(options) {
			fmt.Fprintln(p.out, "Number out of range.")
			continue
		}
		return options[idx], nil
	}
}

// ChooseCategory offers to filter by one of the column's values. It returns
// "" when the user declines or picks an invalid entry.
func (p *Prompter) ChooseCategory(column string, values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	answer, err := p.ask(fmt.Sprintf("\nFilter by %s? (y/n): ", column))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "s", "sim":
	default:
		return "", nil
	}

	fmt.Fprintf(p.out, "\nAvailable %s values:\n", column)
	for i, v := range values {
		fmt.Fprintf(p.out, "%d - %s\n", i, v)
	}
	answer, err = p.ask(fmt.Sprintf("%s number: ", column))
	if err != nil {
		return "", err
	}
	idx, err := strconv.Atoi(answer)
	if err != nil || idx < 0 || idx >= len(values) {
		fmt.Fprintln(p.out, "Invalid choice, no filter applied.")
		return "", nil
	}
	return values[idx], nil
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", fmt.Errorf("no answer: input closed")
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
