package spell

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadWords reads a dictionary file with one word per line and returns the
// set of words folded to lower case. Blank lines are skipped.
func LoadWords(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	words := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" {
			continue
		}
		words[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return words, nil
}

// LoadFrequencies reads a frequency file with "word count" per line and
// returns the word → count mapping. Lines that do not have exactly two
// fields or a numeric count are skipped.
func LoadFrequencies(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frequency table: %w", err)
	}
	defer f.Close()

	freq := make(map[string]int)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		count, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		freq[strings.ToLower(fields[0])] = count
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frequency table: %w", err)
	}
	return freq, nil
}
