// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

// example connects to a TN5250 host, waits for the sign-on screen,
// and prints it to stdout. It is a minimal illustration of the
// Session API, not a production driver.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/racingmars/go5250"
)

func init() {
	go5250.Debug = os.Stderr
}

func main() {
	host := flag.String("host", "", "TN5250 host")
	port := flag.Int("port", 23, "TN5250 port")
	flag.Parse()

	if *host == "" {
		fmt.Fprintln(os.Stderr, "usage: example -host <host> [-port <port>]")
		os.Exit(1)
	}

	session, err := go5250.NewSession(go5250.SessionConfig{
		Host:       *host,
		Port:       *port,
		DeviceType: "IBM-3179-2",
	})
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := session.Connect(ctx); err != nil {
		panic(err)
	}
	defer session.Disconnect()

	if err := session.WaitForKeyboardUnlock(ctx); err != nil {
		panic(err)
	}

	fmt.Println(session.Screen().Text())
}
