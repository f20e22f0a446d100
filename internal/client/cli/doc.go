// Package cli implements the interactive postboard terminal client.
//
// The REPL reads one command per line. Anyone can list and show posts;
// add, edit and delete need a login. A successful login is saved under
// the configured session directory and reused until the token expires,
// at which point the client logs out by itself.
//
//	signup                 create an account
//	login                  authenticate and save the session
//	logout                 forget the saved session
//	list [pagesize page]   list posts, optionally one page
//	show <id>              show a single post
//	add                    create a post with an image file
//	edit <id>              change a post you own
//	delete <id>            delete a post you own
//	help                   show available commands
//	exit | quit            leave the program
package cli
