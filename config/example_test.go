package config_test

import (
	"context"
	"fmt"
	"log"

	"github.com/sagarc03/mayray/config"
)

func ExampleConfig_ServerConfig() {
	cfg := &config.Config{
		Server:   config.ServerConfig{Host: "localhost", Port: 8443, TLS: "off"},
		KeyStore: config.KeyStoreConfig{Password: "changeit"},
	}

	sc, err := cfg.ServerConfig()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Addr: %s, TLS: %s\n", sc.Addr(), sc.TLS)
	// Output: Addr: localhost:8443, TLS: off
}

func ExampleWithContext() {
	cfg := &config.Config{Server: config.ServerConfig{Port: 8443}}

	// Store config in context
	ctx := config.WithContext(context.Background(), cfg)

	// Retrieve later (e.g., in a subcommand)
	retrieved, err := config.FromContext(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Retrieved port: %d\n", retrieved.Server.Port)
	// Output: Retrieved port: 8443
}
