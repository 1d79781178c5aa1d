package main

import "github.com/jcaw/jekyll-github-scraper/cmd"

func main() {
	cmd.Execute()
}
