package sh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rig.go/pkg/hal"
	"github.com/robotalks/rig.go/pkg/l1"
	"github.com/robotalks/rig.go/pkg/l1/env"
	"github.com/robotalks/rig.go/pkg/l1/telemetry"
	"github.com/robotalks/rig.go/pkg/mailbox"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	// Board is connected by Run when AutoConnect is set.
	Board l1.BoardRef

	Shell   *ishell.Shell
	Config  *env.Config
	Monitor *telemetry.Monitor
	Conn    *Conn
}

// Conn is the connection to a board, keeping its latest snapshot.
type Conn struct {
	Ref    l1.BoardRef
	Cancel func()

	snapshots *mailbox.Cell[telemetry.Snapshot]
}

// Snapshot returns the latest snapshot received.
func (c *Conn) Snapshot() (telemetry.Snapshot, bool) {
	return c.snapshots.Get()
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// CommandTimeout bounds the delivery of a command and the wait for a
	// snapshot.
	CommandTimeout = 3 * time.Second

	// ErrNotConnected indicates a command requires a board connection.
	ErrNotConnected = errors.New("not connected")

	// flags

	evalOnly   bool
	outputJSON bool
	boardName  string

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&StatusCmd,
		&WatchCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&boardName, "board", boardName, "Board to connect on start, TYPE/ID.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// FormatInfo prints BoardInfo into friendly string for display.
func FormatInfo(info l1.BoardInfo) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", info.Ref.Name())
	if info.Meta.Profile != "" {
		fmt.Fprintf(&w, " [%s]", info.Meta.Profile)
	}
	if info.Meta.Description != "" {
		fmt.Fprintf(&w, ": %s", info.Meta.Description)
	}
	return w.String()
}

// PrintJSON prints v as JSON.
func PrintJSON(c *ishell.Context, v interface{}) error {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return err
	}
	c.Println(string(out))
	return nil
}

// DoCommand sends a command to the connected board.
func DoCommand(c *ishell.Context, cmd telemetry.Command) (err error) {
	s := ShellFrom(c)
	if s.Conn == nil {
		err = ErrNotConnected
		c.Err(err)
		return
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Monitor.SendCommand(s.Conn.Ref, cmd)
	}()
	select {
	case err = <-errCh:
	case <-time.After(CommandTimeout):
		c.Err(fmt.Errorf("Command timeout"))
		return context.DeadlineExceeded
	}
	if err != nil {
		c.Err(err)
		return
	}
	if s.OutputJSON {
		return PrintJSON(c, map[string]string{"sent": cmd.String()})
	}
	c.Println("OK")
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

func (s *Shell) monitor() (*telemetry.Monitor, error) {
	if s.Monitor != nil {
		return s.Monitor, nil
	}
	if s.Config.MQTTBrokerURL == "" {
		return nil, errors.New("no MQTT broker configured")
	}
	m, err := telemetry.NewMonitor(s.Config.MQTTBrokerURL)
	if err != nil {
		return nil, err
	}
	s.Monitor = m
	return m, nil
}

// DiscoverBoards discovers boards.
func (s *Shell) DiscoverBoards(filter func(l1.BoardInfo) bool) ([]l1.BoardInfo, error) {
	m, err := s.monitor()
	if err != nil {
		return nil, err
	}
	infoList, err := m.Discover(context.TODO())
	if err != nil {
		return nil, err
	}
	if filter != nil {
		items := make([]l1.BoardInfo, 0, len(infoList))
		for _, info := range infoList {
			if filter(info) {
				items = append(items, info)
			}
		}
		infoList = items
	}
	return infoList, nil
}

// SelectBoard discovers boards and asks for a choice.
func (s *Shell) SelectBoard(filter func(l1.BoardInfo) bool) (*l1.BoardInfo, error) {
	infoList, err := s.DiscoverBoards(filter)
	if err != nil {
		return nil, err
	}
	if len(infoList) == 0 {
		return nil, nil
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 boards discovered in non-interactive mode")
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = FormatInfo(info)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}
	return &infoList[index], nil
}

// Connect starts watching the board with ref.
func (s *Shell) Connect(ref l1.BoardRef) error {
	m, err := s.monitor()
	if err != nil {
		return err
	}
	conn := &Conn{
		Ref:       ref,
		snapshots: mailbox.NewCell[telemetry.Snapshot](hal.NewLock()),
	}
	ctx, cancel := context.WithCancel(context.Background())
	conn.Cancel = cancel
	go m.Watch(ctx, ref, func(snapshot telemetry.Snapshot) {
		conn.snapshots.Set(snapshot)
	})
	if s.Conn != nil {
		s.Conn.Cancel()
	}
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", ref.Name()))
	return nil
}

// Disconnect disconnects current board.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Cancel()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Close disconnects and leaves the broker.
func (s *Shell) Close() error {
	s.Disconnect()
	if s.Monitor != nil {
		err := s.Monitor.Close()
		s.Monitor = nil
		return err
	}
	return nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if s.AutoConnect && s.Board.IsValid() {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Board.Name())
		}
		if err := s.Connect(s.Board); err != nil {
			log.Fatalf("connect %q failed: %v", s.Board.Name(), err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// printSnapshot prints a snapshot in the output format of the shell.
func printSnapshot(c *ishell.Context, snapshot telemetry.Snapshot) {
	if !ShellFrom(c).OutputJSON {
		c.Println(snapshot.String())
		return
	}
	out, err := snapshot.JSON()
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(out)
}

var (
	// DiscoverCmd discovers boards.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.DiscoverBoards(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(infoList) == 0 {
					// in case infoList is nil, make it empty slice.
					infoList = []l1.BoardInfo{}
				}
				PrintJSON(c, infoList)
				return
			}
			if len(infoList) == 0 {
				c.Println("No boards found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a board.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "TYPE ID",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var ref l1.BoardRef
			if len(c.Args) >= 2 {
				ref.Type, ref.ID = c.Args[0], c.Args[1]
				if !ref.IsValid() {
					c.Err(fmt.Errorf("invalid board %q", ref.Name()))
					return
				}
			} else {
				var filter func(l1.BoardInfo) bool
				if len(c.Args) == 1 {
					filter = func(info l1.BoardInfo) bool {
						return info.Ref.Type == c.Args[0]
					}
				}
				info, err := s.SelectBoard(filter)
				if err != nil {
					c.Err(err)
					return
				}
				if info == nil {
					c.Err(fmt.Errorf("no board discovered"))
					return
				}
				ref = info.Ref
			}
			if err := s.Connect(ref); err != nil {
				c.Err(err)
				return
			}
		},
	}

	// DisconnectCmd disconnects current board.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// StatusCmd prints the latest snapshot of the board.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"s"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			conn := ShellFrom(c).Conn
			deadline := time.Now().Add(CommandTimeout)
			for {
				if snapshot, ok := conn.Snapshot(); ok {
					printSnapshot(c, snapshot)
					return
				}
				if time.Now().After(deadline) {
					c.Err(fmt.Errorf("no snapshot from %s", conn.Ref.Name()))
					return
				}
				time.Sleep(50 * time.Millisecond)
			}
		}),
	}

	// WatchCmd prints the following snapshots.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[COUNT]",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			count := 10
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n <= 0 {
					c.Err(fmt.Errorf("Invalid COUNT: %q", c.Args[0]))
					return
				}
				count = n
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			snapshotCh := make(chan telemetry.Snapshot, count)
			go s.Monitor.Watch(ctx, s.Conn.Ref, func(snapshot telemetry.Snapshot) {
				select {
				case snapshotCh <- snapshot:
				default:
				}
			})
			for i := 0; i < count; i++ {
				select {
				case snapshot := <-snapshotCh:
					printSnapshot(c, snapshot)
				case <-time.After(CommandTimeout):
					c.Err(fmt.Errorf("no snapshot from %s", s.Conn.Ref.Name()))
					return
				}
			}
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	s := New(env.NewConfig()).WithAutoConnect(true)
	if boardName != "" {
		ref, ok := l1.ParseBoardRef(boardName)
		if !ok {
			log.Fatalf("invalid board %q, expect TYPE/ID", boardName)
		}
		s.Board = ref
	}
	s.Run(flag.Args()...)
}
