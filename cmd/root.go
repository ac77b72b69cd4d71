////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

// Package cmd initializes the CLI and config parsers as well as the logger.
package cmd

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/ekv"

	"github.com/avegrv/mattermost-redux/client"
	"github.com/avegrv/mattermost-redux/model"
	"github.com/avegrv/mattermost-redux/posts"
	"github.com/avegrv/mattermost-redux/store"
)

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to
// happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mmstate",
	Short: "Runs the client-side post state engine against a Mattermost server",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		initLog(viper.GetUint(logLevelFlag), viper.GetString(logFlag))

		st, mgr := initEngine()

		// Re-issue any sends journaled by a previous run before taking
		// on new work.
		mgr.ReplayPendingSends()

		ctx, cancel := signal.NotifyContext(
			context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if message := viper.GetString(messageFlag); message != "" {
			channelId := viper.GetString(channelFlag)
			if channelId == "" {
				jww.FATAL.Panicf("--%s requires --%s",
					messageFlag, channelFlag)
			}
			err := mgr.CreatePost(ctx, &model.Post{
				ChannelId: channelId,
				Message:   message,
			}, nil)
			if err != nil {
				jww.FATAL.Panicf("Failed to send post: %+v", err)
			}
		}

		if viper.GetBool(listenFlag) {
			listen(ctx, st, mgr)
		}

		mgr.WaitForSends()
		if st.SignedOut() {
			jww.FATAL.Panicf("Session expired; sign in again")
		}
	},
}

// initEngine wires the store, the REST boundary and the synchronization
// engine together from the configured flags.
func initEngine() (*store.Store, *posts.Manager) {
	st := store.New(store.Config{
		CurrentUserId:     viper.GetString(userIdFlag),
		EnableCustomEmoji: viper.GetBool(customEmojiFlag),
	})

	rest := client.NewRest(
		viper.GetString(serverFlag), viper.GetString(tokenFlag))

	kv, err := ekv.NewFilestore(
		viper.GetString(sessionFlag), viper.GetString(passwordFlag))
	if err != nil {
		jww.FATAL.Panicf("Failed to open session storage: %+v", err)
	}

	mgr, err := posts.NewManager(st, rest, kv, posts.Params{
		PostsPerPage: viper.GetInt(postsPerPageFlag),
		UnreadLimit:  viper.GetInt(unreadLimitFlag),
	})
	if err != nil {
		jww.FATAL.Panicf("Failed to initialize the post engine: %+v", err)
	}
	return st, mgr
}

// listen dials the websocket endpoint and applies inbound events to the
// store until the context is cancelled or the session expires.
func listen(ctx context.Context, st *store.Store, mgr *posts.Manager) {
	if channelId := viper.GetString(channelFlag); channelId != "" {
		st.SetCurrentChannel(channelId)
	}

	wsURL, err := client.WebsocketURL(viper.GetString(serverFlag))
	if err != nil {
		jww.FATAL.Panicf("%+v", err)
	}
	sock, err := client.Dial(ctx, wsURL, viper.GetString(tokenFlag))
	if err != nil {
		jww.FATAL.Panicf("Failed to connect the event stream: %+v", err)
	}
	defer sock.Close()

	jww.INFO.Printf("Listening for events on %s", wsURL)
	mgr.RunListener(ctx, sock.Events())
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
		jww.INFO.Printf("log level set to: TRACE")
		jww.SetStdoutThreshold(jww.LevelTrace)
		jww.SetLogThreshold(jww.LevelTrace)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else if threshold == 1 {
		jww.INFO.Printf("log level set to: DEBUG")
		jww.SetStdoutThreshold(jww.LevelDebug)
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else {
		jww.INFO.Printf("log level set to: INFO")
		jww.SetStdoutThreshold(jww.LevelInfo)
		jww.SetLogThreshold(jww.LevelInfo)
	}
}

func init() {
	rootCmd.PersistentFlags().UintP(logLevelFlag, "v", 0,
		"Verbose mode for debugging")
	viper.BindPFlag(logLevelFlag,
		rootCmd.PersistentFlags().Lookup(logLevelFlag))

	rootCmd.PersistentFlags().StringP(logFlag, "l", "-",
		"Path to the log output path (- is stdout)")
	viper.BindPFlag(logFlag, rootCmd.PersistentFlags().Lookup(logFlag))

	rootCmd.PersistentFlags().StringP(serverFlag, "", "",
		"Base URL of the server, e.g. https://chat.example.com")
	viper.BindPFlag(serverFlag, rootCmd.PersistentFlags().Lookup(serverFlag))

	rootCmd.PersistentFlags().StringP(tokenFlag, "t", "",
		"Personal access token used for authentication")
	viper.BindPFlag(tokenFlag, rootCmd.PersistentFlags().Lookup(tokenFlag))

	rootCmd.PersistentFlags().StringP(userIdFlag, "u", "",
		"Id of the signed-in user")
	viper.BindPFlag(userIdFlag, rootCmd.PersistentFlags().Lookup(userIdFlag))

	rootCmd.PersistentFlags().StringP(sessionFlag, "s", "session",
		"Sets the initial storage directory for the send journal")
	viper.BindPFlag(sessionFlag,
		rootCmd.PersistentFlags().Lookup(sessionFlag))

	rootCmd.PersistentFlags().StringP(passwordFlag, "p", "",
		"Password for the session storage")
	viper.BindPFlag(passwordFlag,
		rootCmd.PersistentFlags().Lookup(passwordFlag))

	rootCmd.Flags().StringP(channelFlag, "c", "",
		"Channel to send to and treat as focused while listening")
	viper.BindPFlag(channelFlag, rootCmd.Flags().Lookup(channelFlag))

	rootCmd.Flags().StringP(messageFlag, "m", "",
		"Message to send to the channel")
	viper.BindPFlag(messageFlag, rootCmd.Flags().Lookup(messageFlag))

	rootCmd.Flags().BoolP(listenFlag, "", false,
		"Keep running and apply the live event stream to the store")
	viper.BindPFlag(listenFlag, rootCmd.Flags().Lookup(listenFlag))

	rootCmd.Flags().BoolP(customEmojiFlag, "", true,
		"Resolve custom emoji referenced by received posts")
	viper.BindPFlag(customEmojiFlag,
		rootCmd.Flags().Lookup(customEmojiFlag))

	rootCmd.Flags().IntP(postsPerPageFlag, "", 60,
		"Page size for channel history fetches")
	viper.BindPFlag(postsPerPageFlag,
		rootCmd.Flags().Lookup(postsPerPageFlag))

	rootCmd.Flags().IntP(unreadLimitFlag, "", 60,
		"Window size either side of the last read post")
	viper.BindPFlag(unreadLimitFlag,
		rootCmd.Flags().Lookup(unreadLimitFlag))
}
