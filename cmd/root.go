////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

// Package cmd is a local harness around the chat core: it opens a
// file-backed store, creates or loads a chat replica, and drives it from a
// line-oriented prompt. It stands in for the host environment the core
// normally runs under.
package cmd

import (
	"bufio"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/ekv"
	"gitlab.com/xx_network/primitives/netTime"

	"gitlab.com/hearth/hearth/chat"
	"gitlab.com/hearth/hearth/storage/versioned"
)

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main() and only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hearth",
	Short: "Runs a local replica of a hearth group chat",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		initLog(viper.GetUint("logLevel"), viper.GetString("log"))

		m := openChat()
		runPrompt(m)
	},
}

func openChat() *chat.Manager {
	storeDir := viper.GetString("storeDir")
	password := viper.GetString("password")
	username := viper.GetString("username")

	fs, err := ekv.NewFilestore(storeDir, password)
	if err != nil {
		jww.FATAL.Panicf("Failed to open store at %s: %+v", storeDir, err)
	}
	kv := versioned.NewKV(fs)

	me := chat.UserID(chat.HashContent([]byte(username)))
	env := chat.Environment{
		Caller: func() chat.UserID { return me },
		Events: func(e chat.Event) {
			jww.INFO.Printf("[EVENT] %s: %s", e.Type, e.Payload)
		},
	}

	m, err := chat.LoadChat(kv, env)
	if err == nil {
		if _, err = m.JoinChat(username); err != nil &&
			!errors.Is(err, chat.ErrAlreadyMember) {
			jww.FATAL.Panicf("Failed to join chat as %q: %+v", username, err)
		}
		return m
	}

	m, err = chat.NewChat(kv, chat.Definition{
		Name:            viper.GetString("name"),
		DefaultChannels: []string{"general"},
		OwnerUsername:   username,
	}, env)
	if err != nil {
		jww.FATAL.Panicf("Failed to initialize chat: %+v", err)
	}
	fmt.Printf("Created chat %q with default channel #general\n",
		viper.GetString("name"))
	return m
}

func runPrompt(m *chat.Manager) {
	fmt.Printf("Chat %q, commands: /channels /join /create /send "+
		"/messages /read /members /quit\n", m.ChatName())

	scanner := bufio.NewScanner(os.Stdin)
	for fmt.Print("> "); scanner.Scan(); fmt.Print("> ") {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}
		handleLine(m, line)
	}
}

func handleLine(m *chat.Manager, line string) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "/channels":
		for name, info := range m.AllChannels() {
			fmt.Printf("#%s (%s) unread=%d mentions=%d\n", name,
				info.Type, info.UnreadCount, info.MentionCount)
		}
	case "/join":
		if len(args) != 1 {
			fmt.Println("usage: /join <channel>")
			return
		}
		report(m.JoinChannel(args[0]))
	case "/create":
		if len(args) < 1 {
			fmt.Println("usage: /create <channel> [private]")
			return
		}
		chType := chat.Public
		if len(args) > 1 && args[1] == "private" {
			chType = chat.Private
		}
		report(m.CreateChannel(args[0], chType, false, nil, true))
	case "/send":
		if len(args) < 2 {
			fmt.Println("usage: /send <channel> <text>")
			return
		}
		id, err := m.SendMessage(args[0],
			strings.Join(args[1:], " "), nil, "")
		report(string(id), err)
	case "/messages":
		if len(args) != 1 {
			fmt.Println("usage: /messages <channel>")
			return
		}
		resp, err := m.GetMessages(args[0], "", 0, 0)
		if err != nil {
			fmt.Println(err)
			return
		}
		for _, msg := range resp.Messages {
			text := msg.Text
			if msg.Deleted {
				text = "(deleted)"
			}
			fmt.Printf("[%s] %s: %s\n", msg.ID, msg.SenderUsername, text)
		}
	case "/read":
		if len(args) != 1 {
			fmt.Println("usage: /read <channel>")
			return
		}
		report(m.MarkChannelRead(args[0],
			uint64(netTime.Now().UnixNano())))
	case "/members":
		if len(args) != 1 {
			fmt.Println("usage: /members <channel>")
			return
		}
		members, err := m.ChannelMembers(args[0])
		if err != nil {
			fmt.Println(err)
			return
		}
		for id, name := range members {
			fmt.Printf("%s (%s)\n", name, id)
		}
	default:
		fmt.Printf("unknown command %q\n", cmd)
	}
}

func report(msg string, err error) {
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(msg)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().UintP("logLevel", "v", 0,
		"Verbosity level of logging: 0 = info, 1 = debug, 2+ = trace")
	viper.BindPFlag("logLevel", rootCmd.PersistentFlags().Lookup("logLevel"))

	rootCmd.PersistentFlags().StringP("log", "l", "-",
		"Path to the log output path. - outputs to stdout")
	viper.BindPFlag("log", rootCmd.PersistentFlags().Lookup("log"))

	rootCmd.PersistentFlags().StringP("config", "c", "",
		"Path to a YAML config file; flags override its values")

	rootCmd.PersistentFlags().StringP("storeDir", "s", ".hearth",
		"Directory holding the chat state store")
	viper.BindPFlag("storeDir", rootCmd.PersistentFlags().Lookup("storeDir"))

	rootCmd.PersistentFlags().StringP("password", "p", "hearth",
		"Password protecting the state store")
	viper.BindPFlag("password", rootCmd.PersistentFlags().Lookup("password"))

	rootCmd.PersistentFlags().StringP("name", "n", "hearth",
		"Name of the chat to create")
	viper.BindPFlag("name", rootCmd.PersistentFlags().Lookup("name"))

	rootCmd.PersistentFlags().StringP("username", "u", "",
		"Display name to join the chat under")
	viper.BindPFlag("username", rootCmd.PersistentFlags().Lookup("username"))
}

// initConfig reads the config file set by the flag, if any.
func initConfig() {
	cfg, err := rootCmd.PersistentFlags().GetString("config")
	if err != nil || cfg == "" {
		return
	}
	viper.SetConfigFile(cfg)
	if err = viper.ReadInConfig(); err != nil {
		fmt.Printf("Could not read config file %s: %+v\n", cfg, err)
		os.Exit(1)
	}
}

func initLog(threshold uint, logPath string) {
	if logPath != "-" && logPath != "" {
		// Disable stdout output
		jww.SetStdoutOutput(ioutil.Discard)
		// Use log file
		logOutput, err := os.OpenFile(logPath,
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			panic(err.Error())
		}
		jww.SetLogOutput(logOutput)
	}

	if threshold > 1 {
		jww.SetStdoutThreshold(jww.LevelTrace)
		jww.SetLogThreshold(jww.LevelTrace)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
		jww.INFO.Printf("log level set to: TRACE")
	} else if threshold == 1 {
		jww.SetStdoutThreshold(jww.LevelDebug)
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
		jww.INFO.Printf("log level set to: DEBUG")
	} else {
		jww.SetStdoutThreshold(jww.LevelInfo)
		jww.SetLogThreshold(jww.LevelInfo)
		jww.INFO.Printf("log level set to: INFO")
	}
}
