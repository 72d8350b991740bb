// Command news-corpus crawls dated news and fact-check archives into labelled corpus files.
package main

func main() {
	Execute()
}
