package export

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadClasses parses a classes.txt file back into a label -> id mapping. A
// serialized batch's class list round-trips through this.
func ReadClasses(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mapping := map[string]int{}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		idStr, label, found := strings.Cut(text, ": ")
		if !found {
			return nil, fmt.Errorf("export: malformed class list line %d: %q", line, text)
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, fmt.Errorf("export: malformed class id on line %d: %q", line, idStr)
		}
		mapping[label] = id
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return mapping, nil
}
