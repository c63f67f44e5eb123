// Command regfwalk is a read-only inspector for Windows registry hive
// files, built to exercise the key-item subsystem (regfile, cellstore,
// keytree, keyitem, valuelist) end to end from the command line.
package main

func main() {
	execute()
}
