package cli

const dataDirEnv = "STORAGE_DATA_DIR"

func (c *RootCommand) initFlags() {
	c.PersistentFlags().StringVarP(
		&c.Options.ConfigPath,
		"config",
		"c",
		"",
		"Path to the .env configuration file",
	)
	c.PersistentFlags().StringVarP(
		&c.Options.DataDir,
		"data-dir",
		"d",
		"",
		"Directory holding data files and the log, overrides "+dataDirEnv,
	)
}
