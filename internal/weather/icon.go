package weather

// ClassifyIcon maps an OpenWeatherMap condition id to an icon. It is total:
// ids above 804 fall out of the clouds block and land on the final clear
// band, as do any other ids past 799.
func ClassifyIcon(code int) Icon {
	if code >= 800 {
		switch {
		case code < 802:
			return IconClear
		case code == 802:
			return IconPartlyCloudy
		case code == 803:
			return IconMostlyCloudy
		case code == 804:
			return IconOvercast
		}
	}

	switch {
	case code < 300:
		return IconThunderstorm
	case code < 600:
		return IconRain
	case code < 700:
		return IconSnow
	case code < 800:
		return IconFog
	default:
		return IconClear
	}
}
