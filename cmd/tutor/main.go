// Command tutor serves and manages ESL student records, vocabulary lessons
// and learned-word progress.
package main

import "github.com/mesh-intelligence/tutor/internal/cli"

func main() {
	cli.Execute()
}
