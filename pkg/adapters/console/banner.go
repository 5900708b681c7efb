package console

import (
	"fmt"
)

// PrintBanner writes the session header.
func (c *Console) PrintBanner() {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := []struct {
		text  string
		color string
	}{
		{" _       _        _        ", "#818cf8"},
		{"(_)_ __ | |_ __ _| | _____ ", "#a78bfa"},
		{"| | '_ \\| __/ _` | |/ / _ \\", "#c084fc"},
		{"| | | | | || (_| |   <  __/", "#e879f9"},
		{"|_|_| |_|\\__\\__,_|_|\\_\\___|", "#f472b6"},
	}

	fmt.Fprintln(c.out)
	for _, l := range lines {
		fmt.Fprintln(c.out, c.out.String(l.text).Foreground(c.out.Color(l.color)))
	}
	fmt.Fprintln(c.out, c.out.String("Type /start to begin, /help for help, Ctrl+D to quit.").Faint())
	fmt.Fprintln(c.out)
}
