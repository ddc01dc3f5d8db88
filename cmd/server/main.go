package main

import "log"

func main() {
	config := LoadConfig()

	server, err := NewServer(config)
	if err != nil {
		log.Fatal("Server initialization failed:", err)
	}

	log.Fatal(server.Run())
}
