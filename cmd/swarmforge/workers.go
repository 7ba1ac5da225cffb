package main

// Worker blank imports — each import activates a self-registering worker.
// Add new worker implementations here as they are built.

import (
	_ "github.com/Strob0t/SwarmForge/internal/adapter/stub"
)
