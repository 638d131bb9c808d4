package http

import (
	"fmt"
	"strings"

	"github.com/sagarc03/mayray"
)

const personInfo = "You can request the 'name', a 'quote', or the 'role' of this person."

type person struct {
	path  string
	name  string
	quote string
	role  string
}

var people = []person{
	{
		path:  "ada",
		name:  "Ada Lovelace",
		quote: `"The Analytical Engine has no pretensions whatever to originate anything. It can do whatever we know how to order it to perform."`,
		role:  "First programmer",
	},
	{
		path:  "spj",
		name:  "Simon Peyton Jones",
		quote: `"When the limestone of imperative programming is worn away, the granite of functional programming will be observed."`,
		role:  "Inventor of the Haskell programming language",
	},
	{
		path:  "linus",
		name:  "Linus Torvalds",
		quote: `"Intelligence is the ability to avoid doing work, yet getting the work done."`,
		role:  "Inventor of Linux",
	},
	{
		path:  "grace",
		name:  "Grace Hopper",
		quote: `"A ship in port is safe, but that's not what ships are built for."`,
		role:  "Computer engineering pioneer",
	},
}

// personHandler answers /<path>, /<path>/name, /<path>/quote and /<path>/role.
func personHandler(p person) mayray.HandlerFunc {
	return func(req *mayray.Request) []byte {
		if req.Method != mayray.MethodGet {
			return MethodNotAllowed(mayray.MethodGet)
		}

		switch sub := strings.TrimPrefix(req.Path(), "/"+p.path); sub {
		case "", "/":
			return PlainText(mayray.StatusOK, personInfo)
		case "/name":
			return PlainText(mayray.StatusOK, p.name)
		case "/quote":
			return PlainText(mayray.StatusOK, p.quote)
		case "/role":
			return PlainText(mayray.StatusOK, p.role)
		default:
			return PlainText(mayray.StatusNotFound, fmt.Sprintf("Sorry, never heard of this %s thing before", sub))
		}
	}
}
