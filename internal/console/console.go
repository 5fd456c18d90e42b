// Package console is a line-oriented front end for the task list.
//
// Tasks are addressed by their 1-based position in the most recently printed
// list, so the selection lives here and not in the task service.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"todo-list/internal/model"
	"todo-list/internal/service"
)

const prompt = "> "

// Console reads commands from in and writes the rendered list to out.
type Console struct {
	taskSvc     *service.TaskService
	categorySvc *service.CategoryService
	in          io.Reader
	out         io.Writer

	// shown is the list as last printed; positions index into it.
	shown []model.Task
}

func New(taskSvc *service.TaskService, categorySvc *service.CategoryService, in io.Reader, out io.Writer) *Console {
	return &Console{taskSvc: taskSvc, categorySvc: categorySvc, in: in, out: out}
}

// Run prints the list and then processes commands until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.printList()
	c.help()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(c.out, prompt)
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out)
				select {
				case err := <-scanErr:
					return err
				default:
					return ctx.Err()
				}
			}
			if quit := c.Execute(ctx, line); quit {
				return nil
			}
		}
	}
}

// Execute runs one command line. It reports true when the user asked to quit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	cmd, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	args = strings.TrimSpace(args)

	switch strings.ToLower(cmd) {
	case "":
		return false
	case "list", "ls":
		c.report("Failed to load tasks", c.taskSvc.Refresh(ctx))
		c.printList()
	case "add":
		description, category, _ := strings.Cut(args, "|")
		c.report("Failed to add task", c.taskSvc.AddTask(ctx, description, category))
		c.printList()
	case "done", "toggle":
		task, ok := c.selected(args)
		if !ok {
			return false
		}
		c.report("Failed to update task", c.taskSvc.ToggleDone(ctx, &task))
		c.printList()
	case "edit":
		pos, description, _ := strings.Cut(args, " ")
		task, ok := c.selected(pos)
		if !ok {
			return false
		}
		c.report("Failed to edit task", c.taskSvc.EditDescription(ctx, &task, description))
		c.printList()
	case "rm", "remove":
		task, ok := c.selected(args)
		if !ok {
			return false
		}
		c.report("Failed to remove task", c.taskSvc.RemoveTask(ctx, task))
		c.printList()
	case "categories":
		c.printCategories(ctx)
	case "help", "?":
		c.help()
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(c.out, "unknown command %q, try help\n", cmd)
	}
	return false
}

func (c *Console) selected(raw string) (model.Task, bool) {
	pos, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || pos < 1 || pos > len(c.shown) {
		fmt.Fprintf(c.out, "no task at position %q\n", raw)
		return model.Task{}, false
	}
	return c.shown[pos-1], true
}

func (c *Console) report(what string, err error) {
	if err != nil {
		fmt.Fprintf(c.out, "Error: %s:\n%v\n", what, err)
	}
}

func (c *Console) printList() {
	c.shown = c.taskSvc.Tasks()
	if len(c.shown) == 0 {
		fmt.Fprintln(c.out, "No tasks.")
		return
	}
	for i, task := range c.shown {
		box := "[ ]"
		if task.Done {
			box = "[x]"
		}
		fmt.Fprintf(c.out, "%2d. %s %s\n", i+1, box, task.Label())
	}
}

func (c *Console) printCategories(ctx context.Context) {
	names, err := c.categorySvc.List(ctx)
	if err != nil {
		c.report("Failed to load categories", err)
		return
	}
	fmt.Fprintln(c.out, strings.Join(names, ", "))
}

func (c *Console) help() {
	fmt.Fprintln(c.out, "commands: list | add <text> [| <category>] | done <n> | edit <n> <text> | rm <n> | categories | help | quit")
}
