package fakeservice

import "errors"

var (
	errForeignPet = errors.New("pet belongs to another user")
	errNoPet      = errors.New("pet not found")
)

const badRequestPage = `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 3.2 Final//EN">
<title>400 Bad Request</title>
<h1>Bad Request</h1>
<p>%s</p>
`
