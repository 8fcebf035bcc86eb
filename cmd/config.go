package cmd

const DESCRIPTION = `
fzpwup uploads pictures to the image gallery of the Freizeitparkweb
forum. It logs in once, sends the files one after another through
that session and prints the address of every uploaded picture,
ready to be pasted into a posting.
`

const (
	UploadDescription = `The upload command logs into the forum, uploads every
given file as a JPEG picture and prints the resulting
URL followed by the file name for each of them. Globs
(including "**") are expanded, and a text file with one
path per line can be passed with --input-file.

The password is taken from --password, the FZPWUP_PASSWORD
environment variable or the credential store.

Example:
        fzpwup -u bob ~/Bilder/taron/*.jpg
					OR
        fzpwup upload -u bob -i today.txt

`
	CredentialsDescription = `The credentials command manages the stored forum
password. It is kept in the system keyring, or in an
encrypted file in the config directory when no keyring
is available.

Example:
        fzpwup credentials save -u bob
        fzpwup credentials show
        fzpwup credentials forget -u bob

`
	HistoryDescription = `The history command lists previously uploaded pictures
with their URLs, newest first.

Example:
        fzpwup history --limit 20

`
	ConfigDescription = `The config command prints the effective configuration
and the location of the config file.

Example:
        fzpwup config

`
)
