// Package plan implements the Pipeline Planner (component C): it converts
// one parsed command.Command into fd rewirings for each subcommand,
// opening pipes and redirection files and registering every fd it opens
// with an fdset.Collector so a failure partway through never leaks a
// descriptor. It is grounded on the teacher's runPipe/buildSection
// redirection-opening logic (internal/ebash/ebash.go,
// internal/parser/parser.go), factored out of the orchestrator and
// generalized to emit an explicit Rewiring list per spec.md §4.C instead
// of ad hoc writer/connector/reader juggling.
package plan

import (
	"fmt"
	"os"

	"ebash/internal/command"
	"ebash/internal/fdset"
)

// Build fills in the Rewirings field of every subcommand in cmd, opening
// whatever pipes and redirection files are needed along the way. Every fd
// it opens is registered with collector; on any failure (pipe or open)
// the caller is expected to call collector.Collect() and abort — no fork
// is attempted (spec.md §4.C/§7).
func Build(cmd *command.Command, collector *fdset.Collector) error {

	subs := cmd.Subcommands

	for i := range subs {
		for _, redir := range subs[i].Redirections {

			switch redir.Kind {

			case command.Pipe:
				r, w, err := os.Pipe()
				if err != nil {
					return fmt.Errorf("ebash: plan: pipe: %w", err)
				}
				collector.Add(r)
				collector.Add(w)
				subs[i].Rewirings = append(subs[i].Rewirings, command.Rewiring{Target: 1, Source: int(w.Fd())})
				if i+1 < len(subs) {
					subs[i+1].Rewirings = append(subs[i+1].Rewirings, command.Rewiring{Target: 0, Source: int(r.Fd())})
				}

			case command.FileRead:
				f, err := os.OpenFile(redir.Path.Text, os.O_RDONLY, 0)
				if err != nil {
					return fmt.Errorf("ebash: plan: %s: %w", redir.Path.Text, err)
				}
				collector.Add(f)
				subs[i].Rewirings = append(subs[i].Rewirings, command.Rewiring{Target: redir.Fd, Source: int(f.Fd())})

			case command.FileWrite:
				f, err := os.OpenFile(redir.Path.Text, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
				if err != nil {
					return fmt.Errorf("ebash: plan: %s: %w", redir.Path.Text, err)
				}
				collector.Add(f)
				subs[i].Rewirings = append(subs[i].Rewirings, command.Rewiring{Target: redir.Fd, Source: int(f.Fd())})

			case command.FileWriteAppend:
				f, err := os.OpenFile(redir.Path.Text, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
				if err != nil {
					return fmt.Errorf("ebash: plan: %s: %w", redir.Path.Text, err)
				}
				collector.Add(f)
				subs[i].Rewirings = append(subs[i].Rewirings, command.Rewiring{Target: redir.Fd, Source: int(f.Fd())})

			}

		}
	}

	return nil
}
